// helpers_test.go
package keep_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// widget is the basic wrapped type used across holder tests.
type widget struct {
	ID   string
	Hits int
}

// document needs a real deep copy: its Lines slice must not be shared
// between an original and a clone.
type document struct {
	Title string
	Lines []string
}

func cloneDocument(d document) document {
	cp := d
	cp.Lines = append([]string(nil), d.Lines...)
	return cp
}

//
// -----------------------------------------------------------------------------
// Small helpers
// -----------------------------------------------------------------------------

// requirePanicIs asserts fn panics and the panic value matches want via
// errors.Is / direct equality on error values.
func requirePanicIs(t *testing.T, want error, fn func()) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r)

		err, ok := r.(error)
		require.True(t, ok, "panic value is not an error: %v", r)
		require.ErrorIs(t, err, want)
	}()

	fn()
}

// recoverPanic runs fn and returns its panic value, or nil if it did not panic.
func recoverPanic(fn func()) (recovered any) {
	defer func() { recovered = recover() }()
	fn()
	return nil
}

// Keep fmt imported even if we shuffle tests later.
var _ = fmt.Sprint
