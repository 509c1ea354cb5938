// Package handle implements the Handle Registry: identity, type tag,
// reference count and deferred deletion for every live engine object.
//
// Objects live in an arena of slots indexed by the handle's slot number.
// Each slot carries a generation that is bumped when the slot is freed, so a
// stale handle never resolves to a newer object.
//
// Lifecycle of a handle:
//
//	alive (refs > 0) --Release to 0--> doomed --Collect/Unpin--> reaped
//
// A doomed handle still resolves for reads (type, user data, properties) but
// rejects Retain and Release. Reaping is deferred to a block boundary of the
// owning context (Collect), honoring linger windows and internal pins, so the
// render goroutine never observes a freed object. Handles without an owner
// (contexts, buffers, stream handles) are reaped as soon as nothing refers
// to them.
package handle
