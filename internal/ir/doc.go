// Package ir defines the shared vocabulary of the engine: handle ids, object
// types, properties, the tagged property Value and the property schema.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Handles are opaque integer ids, never pointers between audio objects
//   - Property values form a closed sum type; shape is checked at the boundary
//   - Every property has exactly one declared Shape
//   - Times are seconds on the owning context clock, never wall-clock
package ir
