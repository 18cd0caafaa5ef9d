// Package grove provides a small, reflection-based dependency injection
// container for Go that builds the whole bean graph up front.
//
// Register constructors with the container, call [Container.Build] to
// resolve and instantiate every bean in dependency order, then retrieve
// fully-assembled objects with [Resolve].
//
// # Quick Start
//
//	c := grove.New()
//	c.Register(NewLogger)
//	c.Register(NewDatabase)
//	c.Build()
//
//	db, err := grove.Resolve[*Database](c)
//
// # Capabilities
//
// A bean is retrievable as its concrete type, as every interface embedded in
// it (directly or through embedded structs) and as each capability declared
// with [As]. Marker interfaces such as [io.Closer] and [fmt.Stringer] are
// never used as keys.
//
//	c.Register(NewPostgresStore, grove.As(new(Store)))
//
// When several beans provide the same type, the one with the lowest
// [WithPriority] value wins; on a tie the later registration wins.
//
// # Lifetimes
//
// [Singleton] (default): the constructor runs once and every consumer and
// every capability of the bean share the instance.
//
// [Transient]: the constructor runs once per capability key; nothing is
// cached.
//
// # Fallbacks and prebuilt values
//
// [RegisterDefault] declares a type whose zero value can stand in for a
// capability nobody registered. [Provide] makes a value built elsewhere
// injectable, and [Module] lets infrastructure packages contribute such
// values in order.
//
// # Errors
//
// Build fails with [ErrUnresolvedDependency], [ErrCyclicDependency] or
// [ErrConstructionFailure]; the typed errors [UnresolvedDependencyError],
// [CycleError] and [ConstructionError] carry the details.
package grove
