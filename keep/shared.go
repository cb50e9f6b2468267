package keep

import "sync/atomic"

// SharedOption configures a Shared holder at construction time.
type SharedOption[T any] func(*sharedCell[T])

// WithFinalizer registers fn to run exactly once, when the last holder
// referencing the value releases it. The pointer passed to fn is the
// shared value itself, still intact.
func WithFinalizer[T any](fn func(*T)) SharedOption[T] {
	return func(c *sharedCell[T]) {
		c.finalize = fn
	}
}

// sharedCell is the reference-counted allocation behind Shared holders.
type sharedCell[T any] struct {
	val      T
	refs     atomic.Int64
	finalize func(*T)
}

// Shared owns one reference to a reference-counted T.
//
// It mirrors Unique's surface, but copying is sharing: Share returns a
// holder aliasing the same value, and mutation through any alias is
// visible through all of them. The value lives until the last referencing
// holder calls Release, at which point the optional finalizer runs.
//
// The count itself is atomic, so references may be shared and released
// from different goroutines; access to the value carries no locking of its
// own, exactly like a plain shared pointer.
type Shared[T any] struct {
	cell *sharedCell[T]
}

// NewShared allocates a fresh shared value with a reference count of one.
func NewShared[T any](val T, opts ...SharedOption[T]) Shared[T] {
	c := &sharedCell[T]{val: val}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.refs.Add(1)
	return Shared[T]{cell: c}
}

// Share takes one more reference and returns a holder aliasing the same
// value. Sharing an empty holder yields an empty holder.
func (s Shared[T]) Share() Shared[T] {
	if s.cell == nil {
		return Shared[T]{}
	}
	s.cell.refs.Add(1)
	return Shared[T]{cell: s.cell}
}

// Get returns the shared value, or nil if the holder is empty.
func (s Shared[T]) Get() *T {
	if s.cell == nil {
		return nil
	}
	return &s.cell.val
}

// MustGet returns the shared value or panics with ErrEmptyHolder.
func (s Shared[T]) MustGet() *T {
	if s.cell == nil {
		panic(ErrEmptyHolder)
	}
	return &s.cell.val
}

// Empty reports whether the holder references nothing.
func (s Shared[T]) Empty() bool { return s.cell == nil }

// Refs returns the current reference count, or zero for an empty holder.
// The count is advisory under concurrent sharing.
func (s Shared[T]) Refs() int64 {
	if s.cell == nil {
		return 0
	}
	return s.cell.refs.Load()
}

// Set assigns val into the shared storage in place; every holder aliasing
// the value observes it. Set panics with ErrEmptyHolder on an empty
// holder.
func (s *Shared[T]) Set(val T) {
	if s.cell == nil {
		panic(ErrEmptyHolder)
	}
	s.cell.val = val
}

// Swap exchanges the referenced values between two holders without
// touching either reference count: afterwards each holder's sharers see
// the other's former value through their own holders unchanged.
func (s *Shared[T]) Swap(o *Shared[T]) {
	if s == o {
		return
	}
	s.cell, o.cell = o.cell, s.cell
}

// Release drops this holder's reference exactly once and empties the
// holder. When the last reference is dropped, the finalizer (if any) runs
// with the value still intact, and the cell is unpinned for collection.
//
// Releasing an empty holder returns ErrReleased; the shared value can
// never be finalized twice.
func (s *Shared[T]) Release() error {
	c := s.cell
	if c == nil {
		return ErrReleased
	}
	s.cell = nil

	if c.refs.Add(-1) == 0 {
		if c.finalize != nil {
			c.finalize(&c.val)
		}
	}
	return nil
}
