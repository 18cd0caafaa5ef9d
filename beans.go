package grove

import (
	"fmt"
	"io"
	"reflect"
)

// Beans is the result of [Graph.InstantiateBeans]: one live instance per
// provided type. It is never modified after it is returned.
type Beans struct {
	instances map[reflect.Type]reflect.Value
	order     []reflect.Type
}

func newBeans(size int) *Beans {
	return &Beans{
		instances: make(map[reflect.Type]reflect.Value, size),
		order:     make([]reflect.Type, 0, size),
	}
}

func (b *Beans) add(t reflect.Type, v reflect.Value) {
	b.instances[t] = v
	b.order = append(b.order, t)
}

// Get returns the instance stored under t.
func (b *Beans) Get(t reflect.Type) (reflect.Value, bool) {
	v, ok := b.instances[t]
	return v, ok
}

// Len returns the number of provided types.
func (b *Beans) Len() int { return len(b.instances) }

// Types returns every provided type, sorted.
func (b *Beans) Types() []reflect.Type {
	out := make([]reflect.Type, 0, len(b.instances))
	for t := range b.instances {
		out = append(out, t)
	}
	sortTypes(out)
	return out
}

// Order returns the provided types in the order they were materialized.
// Every type comes after all of its dependencies.
func (b *Beans) Order() []reflect.Type {
	out := make([]reflect.Type, len(b.order))
	copy(out, b.order)
	return out
}

// closers returns each distinct instance implementing io.Closer, in
// materialization order. A singleton reachable through several keys is
// listed once.
func (b *Beans) closers() []io.Closer {
	var out []io.Closer
	seen := make(map[any]bool)

	for _, t := range b.order {
		v := b.instances[t]
		if v.Kind() == reflect.Interface {
			if v.IsNil() {
				continue
			}
			v = v.Elem()
		}
		if v.Kind() == reflect.Pointer && v.IsNil() {
			continue
		}
		if !v.CanInterface() {
			continue
		}
		closer, ok := v.Interface().(io.Closer)
		if !ok {
			continue
		}
		if v.Comparable() {
			id := v.Interface()
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		out = append(out, closer)
	}
	return out
}

// Lookup returns the instance stored under the type T.
//
//	store, ok := grove.Lookup[Store](beans)
func Lookup[T any](b *Beans) (T, bool) {
	var zero T
	v, ok := b.Get(typeOf[T]())
	if !ok {
		return zero, false
	}
	out, err := convert[T](v)
	if err != nil {
		return zero, false
	}
	return out, true
}

func convert[T any](v reflect.Value) (T, error) {
	var zero T
	if v.Kind() == reflect.Interface && v.IsNil() {
		return zero, nil
	}
	out, ok := v.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("cannot convert %s to %s", v.Type(), typeOf[T]())
	}
	return out, nil
}
