package keep

import (
	"sync"
	"sync/atomic"
)

// Inline is the value-inline counterpart of Singleton: the unique instance
// lives inside the holder in a Slot rather than behind a separately
// allocated pointer, so a package-level Inline holder performs no heap
// allocation of its own.
//
// The zero value is ready to use. Constructors consequently build a T
// value, not a *T.
//
// First access is double-checked on an atomic "constructed" flag: a
// goroutine that observes the flag set also observes the fully built
// value. As with Singleton, Close belongs in teardown and must not race
// with Get.
//
// An Inline must not be copied after first use.
type Inline[T any] struct {
	ready  atomic.Bool
	mu     sync.Mutex
	closed bool // guarded by mu
	cell   Slot[T]
}

// Get returns the unique instance, constructing it in place via ctor on
// the first call across all callers; later calls ignore ctor. The panic
// contract matches Singleton.Get.
func (s *Inline[T]) Get(ctor func() T) *T {
	if s.ready.Load() {
		return s.cell.MustGet()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready.Load() {
		return s.cell.MustGet()
	}
	if s.closed {
		panic(ErrClosed)
	}
	if ctor == nil {
		panic(ErrNilConstructor)
	}

	s.cell.Assign(ctor())
	s.ready.Store(true)
	return s.cell.MustGet()
}

// GetErr is Get for fallible constructors. A failed construction leaves
// the holder uninitialized so a later call may retry.
func (s *Inline[T]) GetErr(ctor func() (T, error)) (*T, error) {
	if s.ready.Load() {
		return s.cell.MustGet(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready.Load() {
		return s.cell.MustGet(), nil
	}
	if s.closed {
		return nil, ErrClosed
	}
	if ctor == nil {
		return nil, ErrNilConstructor
	}

	v, err := ctor()
	if err != nil {
		return nil, err
	}
	s.cell.Assign(v)
	s.ready.Store(true)
	return s.cell.MustGet(), nil
}

// TryGet returns the instance without constructing.
func (s *Inline[T]) TryGet() (*T, bool) {
	if !s.ready.Load() {
		return nil, false
	}
	return s.cell.MustGet(), true
}

// Initialized reports whether the instance has been built and not yet
// torn down.
func (s *Inline[T]) Initialized() bool {
	return s.ready.Load()
}

// Close tears the holder down exactly once, running dispose on the live
// value before its storage is zeroed. The error contract matches
// Singleton.Close.
func (s *Inline[T]) Close(dispose func(*T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.closed = true

	if !s.ready.Load() {
		return ErrNeverInitialized
	}
	s.ready.Store(false)

	if dispose != nil {
		dispose(s.cell.MustGet())
	}
	return s.cell.Destroy()
}

// UnsyncedInline is Inline without any synchronization; the caller
// guarantees no concurrent first use. Get is a plain flag check.
type UnsyncedInline[T any] struct {
	closed bool
	cell   Slot[T]
}

// Get returns the unique instance, constructing it in place via ctor on
// the first call. See Singleton.Get for the panic contract.
func (s *UnsyncedInline[T]) Get(ctor func() T) *T {
	if s.cell.IsLive() {
		return s.cell.MustGet()
	}
	if s.closed {
		panic(ErrClosed)
	}
	if ctor == nil {
		panic(ErrNilConstructor)
	}

	s.cell.Assign(ctor())
	return s.cell.MustGet()
}

// TryGet returns the instance without constructing.
func (s *UnsyncedInline[T]) TryGet() (*T, bool) {
	return s.cell.Get()
}

// Initialized reports whether the instance has been built and not yet
// torn down.
func (s *UnsyncedInline[T]) Initialized() bool {
	return s.cell.IsLive()
}

// Close tears the holder down exactly once. See Singleton.Close.
func (s *UnsyncedInline[T]) Close(dispose func(*T)) error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true

	if !s.cell.IsLive() {
		return ErrNeverInitialized
	}
	if dispose != nil {
		dispose(s.cell.MustGet())
	}
	return s.cell.Destroy()
}
