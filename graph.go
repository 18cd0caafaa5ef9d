package grove

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// DefaultPriority is the priority of beans that do not ask for one and of
// default-constructor fallbacks. Lower values win.
const DefaultPriority = 100_000

// node is one provided type of a bean. A bean with N capabilities has N
// nodes sharing a single strategy.
type node struct {
	priority int
	key      reflect.Type
	strategy strategy

	// deps are the declared dependency types in constructor order;
	// dependsOn[i] is the provider of deps[i], or nil while unresolved.
	deps      []reflect.Type
	dependsOn []*node
}

func (n *node) satisfy(key reflect.Type, provider *node) {
	for i, d := range n.deps {
		if d == key {
			n.dependsOn[i] = provider
		}
	}
}

// Graph is the bean registry the container feeds while declarations are
// collected. It is consumed once by [Graph.InstantiateBeans].
//
// A Graph is not safe for concurrent use. All declarations must happen
// before InstantiateBeans.
type Graph struct {
	log *zap.Logger

	nodes map[reflect.Type]*node

	// unresolved maps a type nothing provides yet to the nodes waiting on
	// it. An empty map means the graph is complete.
	unresolved map[reflect.Type][]*node

	// defaults maps a capability to the zero-constructible type that can
	// stand in for it; defaultKeys lists every key of such a type.
	defaults    map[reflect.Type]reflect.Type
	defaultKeys map[reflect.Type][]reflect.Type

	built bool
}

// GraphOption configures a [Graph].
type GraphOption func(*Graph)

// WithGraphLogger sets the logger used for declaration and instantiation
// events. The default discards everything.
func WithGraphLogger(l *zap.Logger) GraphOption {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGraph returns an empty graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		log:         zap.NewNop(),
		nodes:       make(map[reflect.Type]*node),
		unresolved:  make(map[reflect.Type][]*node),
		defaults:    make(map[reflect.Type]reflect.Type),
		defaultKeys: make(map[reflect.Type][]reflect.Type),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DeclareBean adds a bean built by constructor. The constructor's
// parameters are its dependencies and its first result is the concrete
// type; caps adds capabilities on top of the ones found by walking the
// concrete type's embedded interfaces.
func (g *Graph) DeclareBean(constructor any, priority int, life Lifetime, caps ...reflect.Type) error {
	if g.built {
		return ErrAlreadyBuilt
	}
	if constructor == nil {
		return fmt.Errorf("constructor must be a function")
	}

	s, err := newFactoryStrategy(reflect.ValueOf(constructor), life)
	if err != nil {
		return err
	}
	return g.addBean(priority, s, s.dependencies(), s.concrete(), caps)
}

// DeclareDefaultConstructible records concrete as the last-resort provider
// of its own type and of caps. No node is created; the type only takes
// part if a dependency is still unresolved when the beans are instantiated.
func (g *Graph) DeclareDefaultConstructible(concrete reflect.Type, caps ...reflect.Type) error {
	if g.built {
		return ErrAlreadyBuilt
	}
	if concrete == nil {
		return fmt.Errorf("%w: nil type", ErrInvalidCapability)
	}

	keys, err := providedTypes(concrete, caps)
	if err != nil {
		return err
	}
	for _, k := range keys {
		g.defaults[k] = concrete
	}
	g.defaultKeys[concrete] = keys

	g.log.Debug("default-constructible type declared",
		zap.Stringer("type", concrete),
		zap.Int("capabilities", len(keys)))
	return nil
}

// DeclarePrebuiltInstance makes an existing value injectable as exactly t.
// Unlike DeclareBean there is no capability expansion.
func (g *Graph) DeclarePrebuiltInstance(t reflect.Type, instance any, priority int) error {
	if g.built {
		return ErrAlreadyBuilt
	}
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrInvalidCapability)
	}

	s, err := newInstanceStrategy(t, instance)
	if err != nil {
		return err
	}
	if instance == nil {
		g.log.Warn("prebuilt instance is nil", zap.Stringer("type", t))
	}

	g.insertOne(priority, t, s, nil)
	return nil
}

// prebuilt returns the instance currently holding t when that holder is a
// prebuilt value. A key won by a constructor bean reports false.
func (g *Graph) prebuilt(t reflect.Type) (reflect.Value, bool) {
	n, ok := g.nodes[t]
	if !ok {
		return reflect.Value{}, false
	}
	s, ok := n.strategy.(*instanceStrategy)
	if !ok {
		return reflect.Value{}, false
	}
	return s.instance, true
}

// HasUnresolvedDependencies reports whether some declared dependency has no
// provider yet.
func (g *Graph) HasUnresolvedDependencies() bool {
	return len(g.unresolved) > 0
}

// Unresolved returns the types nothing provides yet, sorted.
func (g *Graph) Unresolved() []reflect.Type {
	out := make([]reflect.Type, 0, len(g.unresolved))
	for t := range g.unresolved {
		out = append(out, t)
	}
	sortTypes(out)
	return out
}

func (g *Graph) addBean(priority int, s strategy, deps []reflect.Type, concrete reflect.Type, caps []reflect.Type) error {
	keys, err := providedTypes(concrete, caps)
	if err != nil {
		return err
	}

	g.log.Debug("bean declared",
		zap.Stringer("type", concrete),
		zap.Int("priority", priority),
		zap.Stringer("lifetime", s.lifetime()),
		zap.Int("capabilities", len(keys)),
		zap.Int("dependencies", len(deps)))

	for _, k := range keys {
		g.insertOne(priority, k, s, deps)
	}
	return nil
}

// insertOne stores a node for key. A lower priority value replaces an
// existing node; on a tie the later declaration wins. Consumers of a
// replaced node are moved to the new one.
func (g *Graph) insertOne(priority int, key reflect.Type, s strategy, deps []reflect.Type) {
	existing, replacing := g.nodes[key]
	if replacing && priority > existing.priority {
		g.log.Debug("declaration ignored, key held by a preferred bean",
			zap.Stringer("key", key),
			zap.Stringer("kept", existing.strategy.concrete()),
			zap.Stringer("ignored", s.concrete()))
		return
	}

	n := &node{
		priority:  priority,
		key:       key,
		strategy:  s,
		deps:      deps,
		dependsOn: make([]*node, len(deps)),
	}

	if replacing {
		g.log.Debug("bean overridden",
			zap.Stringer("key", key),
			zap.Stringer("previous", existing.strategy.concrete()),
			zap.Stringer("current", s.concrete()))
		g.replace(existing, n)
	}
	g.nodes[key] = n

	for _, consumer := range g.unresolved[key] {
		consumer.satisfy(key, n)
	}
	delete(g.unresolved, key)

	for i, d := range deps {
		if provider, ok := g.nodes[d]; ok {
			n.dependsOn[i] = provider
			continue
		}
		g.block(d, n)
	}
}

// replace points every consumer of old at n and drops old's own pending
// requests so they no longer keep the graph incomplete.
func (g *Graph) replace(old, n *node) {
	for _, m := range g.nodes {
		for i, d := range m.dependsOn {
			if d == old {
				m.dependsOn[i] = n
			}
		}
	}

	for key, waiting := range g.unresolved {
		kept := waiting[:0]
		for _, w := range waiting {
			if w != old {
				kept = append(kept, w)
			}
		}
		if len(kept) == 0 {
			delete(g.unresolved, key)
			continue
		}
		g.unresolved[key] = kept
	}
}

func (g *Graph) block(key reflect.Type, n *node) {
	for _, w := range g.unresolved[key] {
		if w == n {
			return
		}
	}
	g.unresolved[key] = append(g.unresolved[key], n)
}

func (g *Graph) unresolvedError() error {
	missing := g.Unresolved()
	consumers := make(map[reflect.Type][]reflect.Type, len(missing))
	for _, t := range missing {
		for _, n := range g.unresolved[t] {
			consumers[t] = append(consumers[t], n.key)
		}
		sortTypes(consumers[t])
	}
	return &UnresolvedDependencyError{Missing: missing, Consumers: consumers}
}
