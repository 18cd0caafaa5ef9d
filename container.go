package grove

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Container defines the interface for the dependency injection container.
// Use [New] to create an instance.
type Container interface {
	// Register declares a bean built by constructor. The constructor must be
	// a function with the signature func(deps...) T or func(deps...) (T, error).
	// Dependencies are expressed as function parameters and resolved by
	// type. The bean is retrievable as T, as every interface embedded in T
	// and as every capability passed with [As].
	Register(constructor interface{}, opts ...Option) error

	// RegisterDefault declares t as a zero-value fallback for itself and for
	// caps. It is only instantiated when a dependency on one of those types
	// is left unresolved by regular registrations, and then as a
	// [Transient] bean. Prefer the generic [RegisterDefault] helper.
	RegisterDefault(t reflect.Type, caps ...reflect.Type) error

	// Provide makes a value built outside the container injectable as
	// exactly t. Only [WithPriority] is honored. Prefer the generic
	// [Provide] helper.
	Provide(t reflect.Type, instance interface{}, opts ...Option) error

	// Load initializes modules in order and provides the instances they
	// contribute. Each module can look up what earlier modules provided.
	Load(modules ...Module) error

	// HasUnresolvedDependencies reports whether some declared dependency
	// has no provider yet. Default fallbacks are not considered.
	HasUnresolvedDependencies() bool

	// Build instantiates the bean graph: unresolved dependencies get one
	// default-constructor pass, then every bean is built in dependency
	// order. Build fails with [ErrUnresolvedDependency],
	// [ErrCyclicDependency] or [ErrConstructionFailure]; there is exactly
	// one attempt. After Build no further declarations are accepted.
	Build() error

	// Resolve returns the instance stored for the given type. Prefer the
	// generic [Resolve] helper over calling this method directly.
	Resolve(t reflect.Type) (reflect.Value, error)

	// Shutdown closes every distinct instance that implements [io.Closer],
	// in reverse construction order (dependents are closed before their
	// dependencies). The context controls the overall deadline; if it
	// expires, remaining closers are skipped and the context error is
	// included in the result.
	//
	// Shutdown is safe to call multiple times; subsequent calls return
	// [ErrAlreadyShutdown].
	Shutdown(ctx context.Context) error
}

type container struct {
	mu sync.RWMutex

	log     *zap.Logger
	metrics *metrics

	graph *Graph

	// registered holds the concrete types declared through Register.
	registered map[reflect.Type]bool

	beans *Beans

	// closers are recorded in construction order during Build. Shutdown
	// iterates them in reverse.
	closers []io.Closer

	built    bool
	shutdown bool
}

// New creates an empty [Container] ready for registration.
func New(opts ...ContainerOption) Container {
	c := &container{
		log:        zap.NewNop(),
		registered: make(map[reflect.Type]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.graph = NewGraph(WithGraphLogger(c.log))
	return c
}

func (c *container) Register(constructor interface{}, opts ...Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.built {
		return ErrAlreadyBuilt
	}

	d := newDeclaration(opts)
	if d.capErr != nil {
		return d.capErr
	}

	val := reflect.ValueOf(constructor)
	if !val.IsValid() || val.Kind() != reflect.Func {
		return errors.New("constructor must be a function")
	}

	typ := val.Type()
	if typ.NumOut() > 0 && c.registered[typ.Out(0)] {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, typ.Out(0))
	}

	if err := c.graph.DeclareBean(constructor, d.priority, d.lifetime, d.caps...); err != nil {
		return err
	}
	c.registered[typ.Out(0)] = true
	return nil
}

func (c *container) RegisterDefault(t reflect.Type, caps ...reflect.Type) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.built {
		return ErrAlreadyBuilt
	}
	return c.graph.DeclareDefaultConstructible(t, caps...)
}

func (c *container) Provide(t reflect.Type, instance interface{}, opts ...Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.provide(t, instance, opts...)
}

// provide must hold mu.Lock.
func (c *container) provide(t reflect.Type, instance interface{}, opts ...Option) error {
	if c.built {
		return ErrAlreadyBuilt
	}

	d := newDeclaration(opts)
	if d.capErr != nil {
		return d.capErr
	}
	if len(d.caps) > 0 {
		return fmt.Errorf("%w: prebuilt %s is provided as exactly one type", ErrInvalidCapability, t)
	}

	return c.graph.DeclarePrebuiltInstance(t, instance, d.priority)
}

func (c *container) HasUnresolvedDependencies() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.graph.HasUnresolvedDependencies()
}

func (c *container) Build() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.built {
		return ErrAlreadyBuilt
	}

	start := time.Now()
	beans, err := c.graph.InstantiateBeans()
	c.metrics.observeBuild(start, beans, len(c.graph.Unresolved()), err)
	if err != nil {
		c.log.Error("bean graph instantiation failed", zap.Error(err))
		return err
	}

	c.beans = beans
	c.closers = beans.closers()
	c.built = true

	c.log.Info("bean graph instantiated",
		zap.Int("beans", beans.Len()),
		zap.Int("closers", len(c.closers)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// ---------------------------------------------------------------------------
// Shutdown
// ---------------------------------------------------------------------------

func (c *container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.built {
		return ErrNotBuilt
	}

	if c.shutdown {
		return ErrAlreadyShutdown
	}

	c.shutdown = true

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := c.closers[i].Close(); err != nil {
			c.log.Warn("closing bean failed", zap.Error(err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
