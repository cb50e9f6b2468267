// Package keep provides explicit single-object lifetime holders for Go.
//
// This package intentionally covers two families:
//
//   - singletons: Singleton[T] / Inline[T] guarantee exactly one live
//     instance per holder, built lazily on first access and torn down
//     exactly once. Thread-safe variants use double-checked locking with
//     an atomic fast path; Unsynced / UnsyncedInline skip all locking and
//     leave first-use ordering to the caller.
//
//   - opaque holders: Unique[T], Shared[T] and Slot[T] own one instance of
//     a wrapped type with value-like semantics. Unique deep-copies on
//     Clone and transfers on Move; Shared reference-counts and destroys on
//     the last Release; Slot keeps the value inline behind an explicit
//     live/dead tag with no allocation at all.
//
// All misuse paths (double destroy, close before first use, swap across
// unequal allocators, layout mismatch) are explicit: they surface as typed
// errors or typed panics instead of being compiled out in release builds.
//
// Quick guidance
//
// Use Singleton / Inline when you want:
//   - One instance per process scope, built on first Get
//   - A teardown hook that provably runs once
//   - Either pointer-published storage (Singleton) or value-inline
//     storage (Inline)
//
// Use Instance when you want:
//   - One instance per concrete type, process-wide, with concurrent
//     first constructions collapsed into a single call
//
// Use Unique / Shared / Slot when you want:
//   - A struct member that owns its implementation value outright
//   - Explicit ownership transfer (Move/Share) instead of aliasing by
//     accident
//
// To make singleton bypass impossible rather than merely detectable, keep
// the wrapped type's constructor unexported and expose access only through
// a package-level holder:
//
//	type engine struct{ /* ... */ }
//
//	var engineHolder keep.Singleton[engine]
//
//	func Engine() *engine {
//		return engineHolder.Get(func() *engine { return &engine{} })
//	}
//
// Import
//
//	 "github.com/sghaida/okeep/keep"
package keep
