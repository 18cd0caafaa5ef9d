package grove

import (
	"encoding"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
)

// markerCapabilities are interfaces that describe a side trait of a bean
// rather than its role. They are never graph keys.
var markerCapabilities = map[reflect.Type]struct{}{
	typeOf[io.Closer]():                 {},
	typeOf[fmt.Stringer]():              {},
	typeOf[fmt.GoStringer]():            {},
	typeOf[encoding.BinaryMarshaler]():   {},
	typeOf[encoding.BinaryUnmarshaler](): {},
	typeOf[encoding.TextMarshaler]():     {},
	typeOf[encoding.TextUnmarshaler]():   {},
	typeOf[json.Marshaler]():             {},
	typeOf[json.Unmarshaler]():           {},
	typeOf[gob.GobEncoder]():             {},
	typeOf[gob.GobDecoder]():             {},
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Capability returns the type identifier of T. It is mostly useful for
// interfaces, which cannot be passed to reflect.TypeOf directly:
//
//	grove.RegisterDefault[*memoryCache](c, grove.Capability[Cache]())
func Capability[T any]() reflect.Type {
	return typeOf[T]()
}

// providedTypes computes every key a bean of the concrete type is
// retrievable under: the type itself, each interface embedded anywhere along
// its struct-embedding chain, and the explicitly declared capabilities.
// Marker interfaces and the empty interface are dropped. The result is sorted.
func providedTypes(concrete reflect.Type, declared []reflect.Type) ([]reflect.Type, error) {
	set := map[reflect.Type]struct{}{concrete: {}}

	embeddedCapabilities(concrete, make(map[reflect.Type]bool), func(iface reflect.Type) {
		// Two interfaces promoting the same method at one depth cancel out.
		if concrete.Implements(iface) {
			set[iface] = struct{}{}
		}
	})

	for _, d := range declared {
		if d == nil {
			return nil, fmt.Errorf("%w: nil capability for %s", ErrInvalidCapability, concrete)
		}
		if !concrete.AssignableTo(d) {
			return nil, fmt.Errorf("%w: %s is not assignable to %s", ErrInvalidCapability, concrete, d)
		}
		set[d] = struct{}{}
	}

	out := make([]reflect.Type, 0, len(set))
	for t := range set {
		if isMarker(t) {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s provides no usable capability", ErrInvalidCapability, concrete)
	}

	sortTypes(out)
	return out, nil
}

// embeddedCapabilities walks the embedding chain of t. Embedded interfaces
// are reported; embedded structs are walked.
func embeddedCapabilities(t reflect.Type, seen map[reflect.Type]bool, visit func(reflect.Type)) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || seen[t] {
		return
	}
	seen[t] = true

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		if f.Type.Kind() == reflect.Interface {
			visit(f.Type)
			continue
		}
		embeddedCapabilities(f.Type, seen, visit)
	}
}

func isMarker(t reflect.Type) bool {
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return true
	}
	_, ok := markerCapabilities[t]
	return ok
}

func sortTypes(types []reflect.Type) {
	sort.Slice(types, func(i, j int) bool {
		return lessType(types[i], types[j])
	})
}
