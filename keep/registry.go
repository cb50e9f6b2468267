package keep

import (
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// RegistryPanicError is returned by Instance when a constructor panics.
// The panic is contained: no instance is registered and later calls may
// retry.
type RegistryPanicError struct {
	// Type is the instance type whose constructor panicked.
	Type string

	// Recovered is the recovered panic value.
	Recovered any
}

// Error implements the error interface.
func (e RegistryPanicError) Error() string {
	// Example: keep: constructor for "mypkg.Engine" panicked
	return "keep: constructor for " + strconv.Quote(e.Type) + " panicked"
}

// instances maps reflect.Type -> *T for every registered singleton type.
// inflight collapses concurrent first constructions of the same type.
var (
	instances sync.Map
	inflight  singleflight.Group
)

// Instance returns the process-wide singleton for the concrete type T,
// constructing it via ctor on the first call for that type. Exactly one
// constructor runs even when many goroutines race on first access; the
// losers block on the winner's construction and receive its instance.
//
// Later calls return the registered instance and never invoke ctor, so
// only the first constructor is honored. A failed (error or panicking)
// construction registers nothing and a later call may retry.
//
// Instance is the registry-free-factory flavor of singleton: no holder to
// declare, one instance per type per process. Prefer a dedicated
// Singleton holder when teardown (Close) matters.
func Instance[T any](ctor func() (*T, error)) (*T, error) {
	key := reflect.TypeOf((*T)(nil)).Elem()

	if v, ok := instances.Load(key); ok {
		return v.(*T), nil
	}
	if ctor == nil {
		return nil, ErrNilConstructor
	}

	for {
		_, err, _ := inflight.Do(key.String(), func() (out any, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					out = nil
					err = RegistryPanicError{Type: key.String(), Recovered: rec}
				}
			}()

			if v, ok := instances.Load(key); ok {
				return v, nil
			}
			p, err := ctor()
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, ErrNilConstructor
			}
			instances.Store(key, p)
			return p, nil
		})
		if err != nil {
			return nil, err
		}

		// Reload by type rather than trusting the flight result: distinct
		// types can collide on the string key, in which case we only shared
		// a flight, not an instance.
		if v, ok := instances.Load(key); ok {
			return v.(*T), nil
		}
	}
}

// Registered returns the instance for T if one has been constructed.
func Registered[T any]() (*T, bool) {
	key := reflect.TypeOf((*T)(nil)).Elem()
	v, ok := instances.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// Forget drops the registered instance for T, if any, and reports whether
// one was dropped. The instance itself is not disposed; callers owning
// teardown should fetch it first.
//
// Forget exists for tests and controlled reloads. It must not race with
// an in-flight first construction of the same type.
func Forget[T any]() bool {
	key := reflect.TypeOf((*T)(nil)).Elem()
	_, ok := instances.LoadAndDelete(key)
	return ok
}
