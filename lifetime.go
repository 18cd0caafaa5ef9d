package grove

// Lifetime controls how many instances of a bean the container creates.
type Lifetime int

const (
	// Singleton is the default lifetime. The constructor runs at most once
	// during [Container.Build] and every consumer and every capability key
	// of the bean shares the resulting instance.
	Singleton Lifetime = iota

	// Transient means the constructor runs once per capability key and
	// nothing is cached.
	Transient
)

// String returns the lifetime's name as it appears in the "lifetime" field of
// declaration and instantiation log entries.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}
