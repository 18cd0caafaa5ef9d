package grove

import (
	"fmt"
	"reflect"
)

// ---------------------------------------------------------------------------
// Container methods
// ---------------------------------------------------------------------------

func (c *container) Resolve(t reflect.Type) (reflect.Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.built {
		return reflect.Value{}, ErrNotBuilt
	}

	inst, ok := c.beans.Get(t)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrProviderNotFound, t)
	}
	return inst, nil
}

// ---------------------------------------------------------------------------
// Generic helpers
// ---------------------------------------------------------------------------

// Resolve is a generic helper that resolves a typed bean from the
// container. It is the recommended way to retrieve values:
//
//	db, err := grove.Resolve[*Database](c)
func Resolve[T any](c Container) (T, error) {
	var zero T

	val, err := c.Resolve(typeOf[T]())
	if err != nil {
		return zero, err
	}
	return convert[T](val)
}

// MustResolve is like [Resolve] but panics on error. It is meant for
// composition roots where a missing bean is a programming error.
func MustResolve[T any](c Container) T {
	out, err := Resolve[T](c)
	if err != nil {
		panic(fmt.Errorf("grove: resolving %s: %w", typeOf[T](), err))
	}
	return out
}

// Provide makes instance injectable as T:
//
//	grove.Provide[Clock](c, realClock{})
func Provide[T any](c Container, instance T, opts ...Option) error {
	return c.Provide(typeOf[T](), instance, opts...)
}

// RegisterDefault declares T as the zero-value fallback for itself and for
// caps:
//
//	grove.RegisterDefault[*noopTracer](c, grove.Capability[Tracer]())
func RegisterDefault[T any](c Container, caps ...reflect.Type) error {
	return c.RegisterDefault(typeOf[T](), caps...)
}
