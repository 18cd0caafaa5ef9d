package grove

import (
	"reflect"

	"go.uber.org/zap"
)

// InstantiateBeans materializes every node of the graph in dependency order
// and returns the resulting instances keyed by provided type.
//
// Unresolved dependencies first get one pass of the default-constructor
// fallback; whatever is left fails the call with an
// [*UnresolvedDependencyError]. Beans are then built with Kahn's algorithm:
// a node is constructed once every node it depends on has been. Nodes left
// over when no more progress is possible sit on or behind a cycle and yield a
// [*CycleError]. A failing constructor aborts the run with a
// [*ConstructionError].
//
// A graph can only be instantiated once.
func (g *Graph) InstantiateBeans() (*Beans, error) {
	if g.built {
		return nil, ErrAlreadyBuilt
	}
	g.built = true

	if g.HasUnresolvedDependencies() {
		g.resolveDefaults()
		if g.HasUnresolvedDependencies() {
			return nil, g.unresolvedError()
		}
	}

	keys := make([]reflect.Type, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	sortTypes(keys)

	// pending[n] is the number of dependency references of n that are not
	// built yet.
	pending := make(map[*node]int, len(keys))
	dependents := make(map[*node][]*node, len(keys))
	var queue []*node

	for _, k := range keys {
		n := g.nodes[k]
		pending[n] = len(n.dependsOn)
		for _, d := range n.dependsOn {
			dependents[d] = append(dependents[d], n)
		}
		if len(n.dependsOn) == 0 {
			queue = append(queue, n)
		}
	}

	beans := newBeans(len(keys))
	values := make(map[*node]reflect.Value, len(keys))

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		args := make([]reflect.Value, len(n.dependsOn))
		for i, d := range n.dependsOn {
			args[i] = values[d]
		}

		v, err := n.strategy.create(args)
		if err != nil {
			g.log.Debug("bean construction failed", zap.Stringer("key", n.key), zap.Error(err))
			return nil, err
		}
		values[n] = v
		beans.add(n.key, v)
		delete(pending, n)

		g.log.Debug("bean instantiated",
			zap.Stringer("key", n.key),
			zap.Stringer("type", n.strategy.concrete()),
			zap.Stringer("lifetime", n.strategy.lifetime()))

		for _, m := range dependents[n] {
			pending[m]--
			if pending[m] == 0 {
				queue = append(queue, m)
			}
		}
	}

	if len(pending) > 0 {
		return nil, cycleError(pending)
	}
	return beans, nil
}

// cycleError follows not-yet-built dependencies from the smallest pending
// key until a node repeats. Every pending node has at least one pending
// dependency, so the walk always closes a loop.
func cycleError(pending map[*node]int) error {
	var start *node
	for n := range pending {
		if start == nil || lessType(n.key, start.key) {
			start = n
		}
	}

	var path []*node
	seen := make(map[*node]int)
	for cur := start; ; {
		if at, ok := seen[cur]; ok {
			chain := make([]reflect.Type, 0, len(path)-at+1)
			for _, n := range path[at:] {
				chain = append(chain, n.key)
			}
			chain = append(chain, cur.key)
			return &CycleError{Chain: chain}
		}
		seen[cur] = len(path)
		path = append(path, cur)

		for _, d := range cur.dependsOn {
			if _, ok := pending[d]; ok {
				cur = d
				break
			}
		}
	}
}

func lessType(a, b reflect.Type) bool {
	if a.String() != b.String() {
		return a.String() < b.String()
	}
	return a.PkgPath() < b.PkgPath()
}
