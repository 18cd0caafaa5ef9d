package grove

import (
	"reflect"

	"go.uber.org/zap"
)

// resolveDefaults makes one pass over the currently unresolved types and
// inserts a transient zero-value bean for every one that has a registered
// default-constructible type. Such beans have no dependencies, so they never
// add unresolved entries and a single pass is enough.
//
// It returns the number of default types inserted.
func (g *Graph) resolveDefaults() int {
	inserted := make(map[reflect.Type]bool)

	for _, key := range g.Unresolved() {
		if _, still := g.unresolved[key]; !still {
			continue
		}
		concrete, ok := g.defaults[key]
		if !ok || inserted[concrete] {
			continue
		}

		s := newDefaultStrategy(concrete)
		for _, k := range g.defaultKeys[concrete] {
			if g.defaults[k] != concrete {
				// claimed by a later default-constructible type
				continue
			}
			if _, declared := g.nodes[k]; declared {
				continue
			}
			g.insertOne(DefaultPriority, k, s, nil)
		}
		inserted[concrete] = true

		g.log.Debug("unresolved dependency satisfied by default constructor",
			zap.Stringer("dependency", key),
			zap.Stringer("type", concrete))
	}

	return len(inserted)
}
