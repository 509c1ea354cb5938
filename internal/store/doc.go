// Package store provides the SQLite trace log of scenario runs.
//
// The log is append-only:
//   - Runs: one row per scenario execution, keyed by a UUIDv7 run id
//   - Events: every event drained from a context queue, in drain order
//   - Route samples: the gain of every edge after each rendered block
//
// # Ordering
//
// Nothing is ordered by wall-clock time. Events are ordered by their per-run
// seq; route samples by block, then source and destination names compared
// with COLLATE BINARY. Two runs of the same scenario therefore read back
// identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
