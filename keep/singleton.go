package keep

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrNeverInitialized is returned by Close when the holder is torn down
	// without Get ever having been called through it. The holder is still
	// marked closed; the error is a misuse diagnostic, not a partial failure.
	ErrNeverInitialized = errors.New("keep: holder closed before first use")

	// ErrClosed is returned by Close (and carried by the panic from Get)
	// when the holder has already been closed. The wrapped instance is never
	// disposed twice.
	ErrClosed = errors.New("keep: holder already closed")

	// ErrNilConstructor is carried by the panic raised when a first access
	// is attempted with a nil constructor, or when a constructor returns nil.
	ErrNilConstructor = errors.New("keep: nil constructor or nil constructed value")
)

// Singleton is a thread-safe lazy holder for exactly one instance of T.
//
// The zero value is ready to use. The instance lives behind a published
// pointer: Get allocates it on the very first call and every later call
// returns that same pointer, ignoring its constructor argument.
//
// First access uses double-checked locking: an atomic pointer load on the
// fast path, then a mutex plus re-check on the slow path. Publication of
// the pointer happens-before any load that observes it, so a caller that
// sees a non-nil instance also sees it fully constructed.
//
// Holders are typically package-level:
//
//	var cfgHolder keep.Singleton[Config]
//
//	func Cfg() *Config {
//		return cfgHolder.Get(loadConfig)
//	}
//
// A Singleton must not be copied after first use.
type Singleton[T any] struct {
	ptr    atomic.Pointer[T]
	mu     sync.Mutex
	closed bool // guarded by mu
}

// Get returns the unique instance, constructing it via ctor on the first
// call across all callers. Later calls return the existing instance and do
// not invoke ctor, so only the first caller's constructor is ever honored.
//
// Get panics with ErrNilConstructor if construction is attempted with a
// nil ctor or ctor returns nil, and with ErrClosed if the holder was
// already closed. Both are caller bugs, not runtime conditions.
func (s *Singleton[T]) Get(ctor func() *T) *T {
	if p := s.ptr.Load(); p != nil {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.ptr.Load(); p != nil {
		return p
	}
	if s.closed {
		panic(ErrClosed)
	}
	if ctor == nil {
		panic(ErrNilConstructor)
	}

	p := ctor()
	if p == nil {
		panic(ErrNilConstructor)
	}
	s.ptr.Store(p)
	return p
}

// GetErr is Get for fallible constructors. A failed construction publishes
// nothing: the holder stays uninitialized and a later call may retry with
// another constructor.
func (s *Singleton[T]) GetErr(ctor func() (*T, error)) (*T, error) {
	if p := s.ptr.Load(); p != nil {
		return p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.ptr.Load(); p != nil {
		return p, nil
	}
	if s.closed {
		return nil, ErrClosed
	}
	if ctor == nil {
		return nil, ErrNilConstructor
	}

	p, err := ctor()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNilConstructor
	}
	s.ptr.Store(p)
	return p, nil
}

// TryGet returns the instance without constructing.
//
// ok is false if no instance has been built yet (or the holder was closed).
func (s *Singleton[T]) TryGet() (*T, bool) {
	p := s.ptr.Load()
	return p, p != nil
}

// Initialized reports whether the instance has been built and not yet
// torn down.
func (s *Singleton[T]) Initialized() bool {
	return s.ptr.Load() != nil
}

// Close tears the holder down exactly once, running dispose on the
// instance if one was ever built. dispose may be nil.
//
// It returns ErrClosed on a second Close and ErrNeverInitialized when no
// Get ever ran through this holder; in both cases dispose is not called,
// so the wrapped instance can never be disposed twice. Close must not
// race with Get; it belongs in teardown, after all accessors are done.
func (s *Singleton[T]) Close(dispose func(*T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.closed = true

	p := s.ptr.Load()
	if p == nil {
		return ErrNeverInitialized
	}
	s.ptr.Store(nil)

	if dispose != nil {
		dispose(p)
	}
	return nil
}

// Unsynced is Singleton without any synchronization.
//
// The surface and error contract match Singleton exactly, but nothing is
// atomic: the caller must guarantee that no two goroutines race on first
// access (or any access interleaved with Close). In exchange, Get is a
// plain nil check.
type Unsynced[T any] struct {
	ptr    *T
	closed bool
}

// Get returns the unique instance, constructing it via ctor on the first
// call. See Singleton.Get for the panic contract.
func (s *Unsynced[T]) Get(ctor func() *T) *T {
	if s.ptr != nil {
		return s.ptr
	}
	if s.closed {
		panic(ErrClosed)
	}
	if ctor == nil {
		panic(ErrNilConstructor)
	}

	p := ctor()
	if p == nil {
		panic(ErrNilConstructor)
	}
	s.ptr = p
	return p
}

// GetErr is Get for fallible constructors; a failed construction leaves
// the holder uninitialized.
func (s *Unsynced[T]) GetErr(ctor func() (*T, error)) (*T, error) {
	if s.ptr != nil {
		return s.ptr, nil
	}
	if s.closed {
		return nil, ErrClosed
	}
	if ctor == nil {
		return nil, ErrNilConstructor
	}

	p, err := ctor()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNilConstructor
	}
	s.ptr = p
	return p, nil
}

// TryGet returns the instance without constructing.
func (s *Unsynced[T]) TryGet() (*T, bool) {
	return s.ptr, s.ptr != nil
}

// Initialized reports whether the instance has been built and not yet
// torn down.
func (s *Unsynced[T]) Initialized() bool {
	return s.ptr != nil
}

// Close tears the holder down exactly once. See Singleton.Close.
func (s *Unsynced[T]) Close(dispose func(*T)) error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true

	if s.ptr == nil {
		return ErrNeverInitialized
	}
	p := s.ptr
	s.ptr = nil

	if dispose != nil {
		dispose(p)
	}
	return nil
}
