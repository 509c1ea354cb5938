// Package engine implements a synthplane library instance: the object graph
// of every context, the staging of control calls and the per-block commit.
//
// ARCHITECTURE:
//
// Control calls (property writes, routes, automation, play/pause) validate
// synchronously on the caller's goroutine and stage a mutation on the owning
// context. Nothing they change is visible to rendering until the next block
// boundary.
//
// Block Boundary:
// Each context renders on one goroutine at a time. A step:
//  1. applies staged mutations in arrival order
//  2. reaps doomed children whose linger window has passed
//  3. applies automation that fell due and records user events
//  4. renders the block through the Renderer
//  5. advances route fades
//  6. records generator signals
//  7. advances the context clock
//
// Real-time contexts step on a ticker; headless contexts step on GetBlock.
//
// Lifetime:
// Handles are reference counted by the handle registry. Engine internals
// (property references, source generators, each child's hold on its context, queued
// events) take pins instead of references, so a user Release never frees an
// object still in use. Destroy hooks run on the goroutine that reaped the
// handle and never wait for a render goroutine.
//
// Context time is derived from the block count, never from the wall clock,
// so a headless context replays identically.
package engine
