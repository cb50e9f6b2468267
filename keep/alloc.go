package keep

import (
	"reflect"
	"strconv"
	"sync"
)

// Allocator is the allocation capability injected into heap-indirected
// holders: a matched Allocate/Deallocate pair. Every pointer obtained from
// Allocate must eventually be returned to the same allocator's Deallocate.
//
// Implementations are composed into holders at construction time (see
// WithAllocator) rather than baked into the holder's type.
type Allocator[T any] interface {
	Allocate() *T
	Deallocate(*T)
}

// Equaler lets an allocator define its own equality for swap
// compatibility checks. Allocators without it are compared by dynamic
// type, then by == when that type is comparable.
type Equaler[T any] interface {
	Equal(Allocator[T]) bool
}

// HeapAllocator is the default allocator: plain new(T), with Deallocate a
// no-op since the garbage collector reclaims the storage. All
// HeapAllocators compare equal, so swaps between default-allocated
// holders are always valid.
type HeapAllocator[T any] struct{}

// Allocate returns a zeroed *T.
func (HeapAllocator[T]) Allocate() *T { return new(T) }

// Deallocate is a no-op.
func (HeapAllocator[T]) Deallocate(*T) {}

// PoolAllocator recycles storage through a typed sync.Pool. Deallocate
// zeroes the value before returning it to the pool so recycled storage
// never leaks a previous owner's state.
//
// Two PoolAllocators are equal only if they are the same *PoolAllocator.
type PoolAllocator[T any] struct {
	pool *sync.Pool
}

// NewPoolAllocator returns a pool-backed allocator for T.
func NewPoolAllocator[T any]() *PoolAllocator[T] {
	return &PoolAllocator[T]{
		pool: &sync.Pool{
			New: func() any { return new(T) },
		},
	}
}

// Allocate takes a zeroed *T from the pool, growing it if necessary.
func (a *PoolAllocator[T]) Allocate() *T {
	return a.pool.Get().(*T)
}

// Deallocate zeroes p and returns it to the pool.
func (a *PoolAllocator[T]) Deallocate(p *T) {
	if p == nil {
		return
	}
	var zero T
	*p = zero
	a.pool.Put(p)
}

// AllocMismatchError is the panic value raised when two holders with
// unequal allocators are swapped. Crossing storage between unequal
// allocators would hand each allocator a pointer it never issued, so the
// check is fatal rather than recoverable.
type AllocMismatchError struct {
	// Left and Right are the dynamic allocator types involved.
	Left  string
	Right string
}

// Error implements the error interface.
func (e AllocMismatchError) Error() string {
	// Example: keep: swap across unequal allocators ("*keep.PoolAllocator[int]" vs "keep.HeapAllocator[int]")
	return "keep: swap across unequal allocators (" + strconv.Quote(e.Left) +
		" vs " + strconv.Quote(e.Right) + ")"
}

// allocatorsEqual decides swap compatibility.
//
// Order matters: an Equaler gets the final say for its own side, then
// dynamic types must match, then comparable allocators are compared by
// value. Non-comparable allocators of the same type are conservatively
// unequal.
func allocatorsEqual[T any](a, b Allocator[T]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if eq, ok := a.(Equaler[T]); ok {
		return eq.Equal(b)
	}
	if eq, ok := b.(Equaler[T]); ok {
		return eq.Equal(a)
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		return false
	}
	return a == b
}

// allocTypeName is used to build AllocMismatchError fields.
func allocTypeName[T any](a Allocator[T]) string {
	if a == nil {
		return "<nil>"
	}
	return reflect.TypeOf(a).String()
}
