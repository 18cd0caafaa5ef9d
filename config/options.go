package config

import "go.uber.org/zap"

type options struct {
	file     string
	envFiles []string
	prefix   string
	environ  map[string]string
	log      *zap.Logger
}

// Option configures [Load] and [Provide].
type Option func(*options)

// WithFile reads a YAML file before the environment is applied. The file
// must exist.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithEnvFiles sets the .env files to read, in order. Later files override
// earlier ones. The default is ".env".
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.envFiles = paths
	}
}

// WithPrefix prepends prefix to every environment variable name.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEnvironment replaces the process environment.
func WithEnvironment(environ map[string]string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// WithLogger sets the logger. The default discards everything; nil keeps
// the default.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		envFiles: []string{".env"},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
