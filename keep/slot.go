package keep

import (
	"errors"
	"strconv"
	"unsafe"
)

var (
	// ErrSlotLive is returned by Construct when the slot already holds a
	// live value.
	ErrSlotLive = errors.New("keep: slot already holds a live value")

	// ErrSlotDead is returned by Destroy and Take when the slot holds no
	// live value. It is the double-destroy guard: a value placed into a
	// slot is destroyed at most once.
	ErrSlotDead = errors.New("keep: slot holds no live value")
)

// Slot is a one-element arena: inline storage for a single T plus an
// explicit live/dead tag.
//
// The zero value is an empty (dead) slot. The value lives inside the Slot
// struct itself, so a Slot member adds no allocation and no pointer
// indirection to its enclosing type; the cost is that the enclosing type's
// size now depends on T. Use NewSized to pin that size down as a declared
// contract.
//
// Slot performs no locking. Like any plain value, a slot shared across
// goroutines needs external synchronization.
type Slot[T any] struct {
	val  T
	live bool
}

// IsLive reports whether the slot currently holds a value.
func (s *Slot[T]) IsLive() bool { return s.live }

// Construct places val into an empty slot.
//
// It returns ErrSlotLive if the slot is already occupied; use Assign to
// overwrite in place.
func (s *Slot[T]) Construct(val T) error {
	if s.live {
		return ErrSlotLive
	}
	s.val = val
	s.live = true
	return nil
}

// Destroy removes the live value, zeroing the storage so the slot does not
// pin anything the value referenced.
//
// It returns ErrSlotDead if there is nothing to destroy.
func (s *Slot[T]) Destroy() error {
	if !s.live {
		return ErrSlotDead
	}
	var zero T
	s.val = zero
	s.live = false
	return nil
}

// Get returns a pointer to the live value.
//
// ok is false for a dead slot; the pointer is only valid between a
// completed Construct and the next Destroy/Take.
func (s *Slot[T]) Get() (*T, bool) {
	if !s.live {
		return nil, false
	}
	return &s.val, true
}

// MustGet returns a pointer to the live value or panics with ErrSlotDead.
func (s *Slot[T]) MustGet() *T {
	if !s.live {
		panic(ErrSlotDead)
	}
	return &s.val
}

// Assign writes val into the slot: in place when live (the existing value
// is overwritten, not destroyed-and-reconstructed), as a fresh
// construction when dead.
func (s *Slot[T]) Assign(val T) {
	s.val = val
	s.live = true
}

// Take moves the value out, leaving the slot dead and zeroed.
//
// It returns ErrSlotDead if the slot holds nothing.
func (s *Slot[T]) Take() (T, error) {
	var zero T
	if !s.live {
		return zero, ErrSlotDead
	}
	v := s.val
	s.val = zero
	s.live = false
	return v, nil
}

// Swap exchanges the logical contents of two slots, including their
// live/dead tags. Swapping twice restores both slots exactly.
func (s *Slot[T]) Swap(o *Slot[T]) {
	if s == o {
		return
	}

	switch {
	case s.live && o.live:
		s.val, o.val = o.val, s.val
	case s.live:
		o.val = s.val
		o.live = true
		var zero T
		s.val = zero
		s.live = false
	case o.live:
		s.val = o.val
		s.live = true
		var zero T
		o.val = zero
		o.live = false
	}
}

// Layout describes the size and alignment of a slot's storage in bytes.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// LayoutOf returns the actual storage layout of T.
func LayoutOf[T any]() Layout {
	var v T
	return Layout{Size: unsafe.Sizeof(v), Align: unsafe.Alignof(v)}
}

// LayoutError reports a declared layout that does not fit the concrete
// type: the declared size must equal the type's size exactly, and the
// declared alignment must be at least as strict as the type's alignment.
//
// The usual cause is the concrete type changing after the layout constant
// was declared elsewhere.
type LayoutError struct {
	Declared Layout
	Actual   Layout
}

// Error implements the error interface.
func (e LayoutError) Error() string {
	// Example: keep: declared layout 16/8 does not fit type layout 24/8
	return "keep: declared layout " + formatLayout(e.Declared) +
		" does not fit type layout " + formatLayout(e.Actual)
}

func formatLayout(l Layout) string {
	return strconv.FormatUint(uint64(l.Size), 10) + "/" + strconv.FormatUint(uint64(l.Align), 10)
}

// NewSized returns an empty slot for T after validating a declared layout
// against T's real one. It fails fast with a LayoutError before any value
// is placed, so a stale declaration can never corrupt memory.
//
// The declaration is typically a package-level constant next to the
// forward declaration of the implementation type, checked here at the
// first point Go can see the complete type.
func NewSized[T any](declared Layout) (*Slot[T], error) {
	actual := LayoutOf[T]()
	if declared.Size != actual.Size || declared.Align < actual.Align {
		return nil, LayoutError{Declared: declared, Actual: actual}
	}
	return &Slot[T]{}, nil
}

// MustSized is NewSized or panic. Useful for package-level holders where a
// layout mismatch must abort startup.
func MustSized[T any](declared Layout) *Slot[T] {
	s, err := NewSized[T](declared)
	if err != nil {
		panic(err)
	}
	return s
}
