package grove

import (
	"fmt"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// declaration holds the metadata collected for one bean registration.
type declaration struct {
	lifetime Lifetime
	priority int
	caps     []reflect.Type
	capErr   error
}

// Option configures a bean during registration.
type Option func(*declaration)

// WithLifetime sets the [Lifetime] of the bean. The default is [Singleton].
func WithLifetime(l Lifetime) Option {
	return func(d *declaration) {
		d.lifetime = l
	}
}

// WithPriority sets the priority of the bean. When several beans provide
// the same type, the lowest value wins. The default is [DefaultPriority].
func WithPriority(p int) Option {
	return func(d *declaration) {
		d.priority = p
	}
}

// As adds capabilities the bean can be retrieved as. Each argument is a
// pointer to an interface (or a reflect.Type):
//
//	c.Register(NewPostgresStore, grove.As(new(Store), new(HealthChecker)))
func As(caps ...any) Option {
	return func(d *declaration) {
		for _, c := range caps {
			t, err := capabilityType(c)
			if err != nil {
				d.capErr = err
				return
			}
			d.caps = append(d.caps, t)
		}
	}
}

func capabilityType(c any) (reflect.Type, error) {
	if t, ok := c.(reflect.Type); ok {
		return t, nil
	}
	t := reflect.TypeOf(c)
	if t == nil || t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("%w: As expects a pointer to an interface, got %T", ErrInvalidCapability, c)
	}
	return t.Elem(), nil
}

func newDeclaration(opts []Option) declaration {
	d := declaration{
		lifetime: Singleton,
		priority: DefaultPriority,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// ContainerOption configures a [Container].
type ContainerOption func(*container)

// WithLogger sets the logger for the container and its bean graph.
func WithLogger(l *zap.Logger) ContainerOption {
	return func(c *container) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics registers the container's build metrics with reg. Containers
// given the same registerer report into the same collectors.
func WithMetrics(reg prometheus.Registerer) ContainerOption {
	return func(c *container) {
		c.metrics = newMetrics(reg)
	}
}
