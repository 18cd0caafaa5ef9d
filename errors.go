package grove

import (
	"errors"
	"reflect"
	"strings"
)

var (
	// ErrNotBuilt is returned when Resolve is called before Build.
	ErrNotBuilt = errors.New("container not built")

	// ErrAlreadyBuilt is returned when a declaration or Build is attempted
	// after the beans have already been instantiated.
	ErrAlreadyBuilt = errors.New("container already built")

	// ErrAlreadyShutdown is returned by a second call to Shutdown.
	ErrAlreadyShutdown = errors.New("container already shut down")

	// ErrProviderNotFound is returned when no bean is available for the
	// requested type.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrDuplicateProvider is returned when the same concrete type is
	// registered more than once.
	ErrDuplicateProvider = errors.New("duplicate provider")

	// ErrInvalidCapability is returned when a bean declares a capability its
	// concrete type cannot be used as.
	ErrInvalidCapability = errors.New("invalid capability")

	// ErrUnresolvedDependency is returned when at least one declared
	// dependency has no provider after the default-constructor fallback.
	ErrUnresolvedDependency = errors.New("unresolved dependency")

	// ErrCyclicDependency is returned when the bean graph contains a cycle.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrConstructionFailure is returned when a constructor returns an error
	// or panics.
	ErrConstructionFailure = errors.New("bean construction failed")
)

// UnresolvedDependencyError lists the dependency types nothing provides and
// the beans waiting on each of them.
type UnresolvedDependencyError struct {
	Missing   []reflect.Type
	Consumers map[reflect.Type][]reflect.Type
}

func (e *UnresolvedDependencyError) Error() string {
	var b strings.Builder
	b.WriteString(ErrUnresolvedDependency.Error())
	b.WriteString(": ")
	for i, t := range e.Missing {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
		if consumers := e.Consumers[t]; len(consumers) > 0 {
			b.WriteString(" (needed by ")
			b.WriteString(joinTypes(consumers, ", "))
			b.WriteString(")")
		}
	}
	return b.String()
}

func (e *UnresolvedDependencyError) Is(target error) bool {
	return target == ErrUnresolvedDependency
}

// CycleError carries one dependency cycle found in the graph. The first and
// last element of Chain are the same type.
type CycleError struct {
	Chain []reflect.Type
}

func (e *CycleError) Error() string {
	return ErrCyclicDependency.Error() + ": " + joinTypes(e.Chain, " -> ")
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// ConstructionError wraps the failure of a constructor and names the
// concrete type being built.
type ConstructionError struct {
	Type reflect.Type
	Err  error
}

func (e *ConstructionError) Error() string {
	return ErrConstructionFailure.Error() + ": " + e.Type.String() + ": " + e.Err.Error()
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstructionFailure
}

func (e *ConstructionError) Unwrap() error { return e.Err }

func joinTypes(types []reflect.Type, sep string) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, sep)
}
