package grove

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// BeanProvider is an instance a module contributes to the container.
type BeanProvider struct {
	Type     reflect.Type
	Instance any
	Priority int
}

// ProvideBean builds a [BeanProvider] for T at [DefaultPriority].
func ProvideBean[T any](instance T) BeanProvider {
	return BeanProvider{Type: typeOf[T](), Instance: instance, Priority: DefaultPriority}
}

// InstanceLookup gives a module access to the prebuilt instances declared
// before it, by earlier modules or by Provide. When several were declared for
// a type, it returns the one the graph keeps.
type InstanceLookup interface {
	Instance(t reflect.Type) (reflect.Value, bool)
}

// Module groups infrastructure that is built outside the bean graph (a
// database pool, an HTTP server) and hands the result to it.
type Module interface {
	// Name identifies the module in logs and errors.
	Name() string

	// Init prepares the module. Instances from earlier modules are
	// available through lookup.
	Init(lookup InstanceLookup) error

	// BeanProviders returns the instances to make injectable. It is called
	// once, after Init succeeded.
	BeanProviders() []BeanProvider
}

// LookupInstance is the typed form of [InstanceLookup.Instance].
func LookupInstance[T any](lookup InstanceLookup) (T, bool) {
	var zero T
	v, ok := lookup.Instance(typeOf[T]())
	if !ok {
		return zero, false
	}
	out, err := convert[T](v)
	if err != nil {
		return zero, false
	}
	return out, true
}

// moduleLookup reads prebuilt instances straight from the graph, so a
// module sees whichever provider currently wins the key.
type moduleLookup struct {
	graph *Graph
}

func (l moduleLookup) Instance(t reflect.Type) (reflect.Value, bool) {
	return l.graph.prebuilt(t)
}

func (c *container) Load(modules ...Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.built {
		return ErrAlreadyBuilt
	}

	for _, m := range modules {
		if err := m.Init(moduleLookup{graph: c.graph}); err != nil {
			return fmt.Errorf("module %q: init: %w", m.Name(), err)
		}

		providers := m.BeanProviders()
		for _, p := range providers {
			if err := c.provide(p.Type, p.Instance, WithPriority(p.Priority)); err != nil {
				return fmt.Errorf("module %q: providing %v: %w", m.Name(), p.Type, err)
			}
		}

		c.log.Debug("module loaded",
			zap.String("module", m.Name()),
			zap.Int("beans", len(providers)))
	}
	return nil
}
