package keep

import "errors"

var (
	// ErrEmptyHolder is carried by the panic from MustGet and Set when a
	// holder has been moved from or released.
	ErrEmptyHolder = errors.New("keep: empty holder")

	// ErrReleased is returned by Release when the holder owns nothing,
	// either because it was already released or because its value was moved
	// out. Storage is never returned to an allocator twice.
	ErrReleased = errors.New("keep: holder already released")
)

// UniqueOption configures a Unique holder at construction time.
type UniqueOption[T any] func(*Unique[T])

// WithAllocator routes the holder's single allocation (and its eventual
// release) through alloc instead of the default HeapAllocator.
func WithAllocator[T any](alloc Allocator[T]) UniqueOption[T] {
	return func(u *Unique[T]) {
		if alloc != nil {
			u.alloc = alloc
		}
	}
}

// WithClone supplies a deep-copy function used by Clone for types whose
// plain value copy is too shallow (values holding slices, maps, or
// pointers that must not be shared between the original and the clone).
func WithClone[T any](clone func(T) T) UniqueOption[T] {
	return func(u *Unique[T]) {
		u.clone = clone
	}
}

// Unique owns exactly one heap-indirected T with value semantics: Clone
// deep-copies, Move transfers, Set assigns into the existing storage.
//
// The intended use is as a private member wrapping an implementation type,
// so the enclosing type keeps value semantics while the implementation
// stays behind one pointer:
//
//	type File struct {
//		impl keep.Unique[fileImpl]
//	}
//
// Every non-move construction performs exactly one allocation through the
// holder's allocator; Move performs none.
//
// Unique does no locking: a holder is exclusively owned by its enclosing
// value, and concurrent mutation of one holder is a caller bug.
type Unique[T any] struct {
	ptr   *T
	alloc Allocator[T]
	clone func(T) T
}

// NewUnique allocates storage for val and returns the owning holder.
func NewUnique[T any](val T, opts ...UniqueOption[T]) Unique[T] {
	u := Unique[T]{alloc: HeapAllocator[T]{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&u)
		}
	}
	u.ptr = u.alloc.Allocate()
	*u.ptr = val
	return u
}

// Get returns the owned value, or nil if the holder is empty (moved from
// or released).
func (u *Unique[T]) Get() *T { return u.ptr }

// MustGet returns the owned value or panics with ErrEmptyHolder.
func (u *Unique[T]) MustGet() *T {
	if u.ptr == nil {
		panic(ErrEmptyHolder)
	}
	return u.ptr
}

// Empty reports whether the holder currently owns nothing.
func (u *Unique[T]) Empty() bool { return u.ptr == nil }

// Clone returns a holder owning a deep copy of the value, allocated from
// the same allocator. Mutating the clone is never observable through the
// original. Cloning an empty holder yields an empty holder.
func (u *Unique[T]) Clone() Unique[T] {
	cp := Unique[T]{alloc: u.alloc, clone: u.clone}
	if u.ptr == nil {
		return cp
	}

	val := *u.ptr
	if u.clone != nil {
		val = u.clone(val)
	}
	cp.ptr = cp.alloc.Allocate()
	*cp.ptr = val
	return cp
}

// Move transfers ownership into the returned holder, leaving the source
// empty but still configured (its allocator and clone function survive, so
// Set can refill it). No allocation occurs.
func (u *Unique[T]) Move() Unique[T] {
	moved := Unique[T]{ptr: u.ptr, alloc: u.alloc, clone: u.clone}
	u.ptr = nil
	return moved
}

// Set assigns val into the existing owned storage, preserving pointer
// identity: references previously obtained from Get stay valid and
// observe the new value. An empty holder allocates fresh storage instead.
func (u *Unique[T]) Set(val T) {
	if u.ptr == nil {
		if u.alloc == nil {
			u.alloc = HeapAllocator[T]{}
		}
		u.ptr = u.alloc.Allocate()
	}
	*u.ptr = val
}

// Swap exchanges ownership between two holders.
//
// Swapping is only meaningful when both holders' allocators are equal;
// otherwise each allocator would end up holding storage it never issued.
// An unequal swap is a precondition violation and panics with
// AllocMismatchError.
func (u *Unique[T]) Swap(o *Unique[T]) {
	if u == o {
		return
	}
	if !allocatorsEqual(u.alloc, o.alloc) {
		panic(AllocMismatchError{
			Left:  allocTypeName(u.alloc),
			Right: allocTypeName(o.alloc),
		})
	}
	u.ptr, o.ptr = o.ptr, u.ptr
}

// Release returns the owned storage to the allocator exactly once and
// empties the holder. It returns ErrReleased when there is nothing to
// release.
//
// Release is optional for HeapAllocator-backed holders (the collector
// reclaims them) but required to recycle PoolAllocator storage.
func (u *Unique[T]) Release() error {
	if u.ptr == nil {
		return ErrReleased
	}
	p := u.ptr
	u.ptr = nil
	if u.alloc != nil {
		u.alloc.Deallocate(p)
	}
	return nil
}
