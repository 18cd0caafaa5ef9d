// Package config fills typed configuration structs and hands them to a
// grove container as prebuilt instances.
//
// Values are layered: an optional YAML file first, then .env files, then the
// process environment. A later source overrides an earlier one field by
// field. YAML keys come from `yaml` struct tags, environment variables from
// `env` tags:
//
//	type DBConfig struct {
//		DSN     string        `yaml:"dsn" env:"DB_DSN"`
//		Timeout time.Duration `yaml:"timeout" env:"DB_TIMEOUT"`
//	}
//
//	cfg, err := config.Provide[DBConfig](c, config.WithFile("app.yaml"))
//
// Load never zeroes the target, so values set before the call act as
// defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ARTM2000/grove"
)

// ErrMissingProperty is returned when a field tagged `env:",required"` or
// `env:",notEmpty"` has no value in the layered environment.
var ErrMissingProperty = errors.New("missing configuration property")

// Load fills target, which must be a pointer to a struct.
func Load(target any, opts ...Option) error {
	o := newOptions(opts)

	if o.file != "" {
		if err := loadFile(target, o.file); err != nil {
			return err
		}
	}

	environ, err := o.environment()
	if err != nil {
		return err
	}

	err = env.ParseWithOptions(target, env.Options{
		Environment: environ,
		Prefix:      o.prefix,
	})
	if err != nil {
		if errors.Is(err, env.VarIsNotSetError{}) || errors.Is(err, env.EmptyVarError{}) {
			return fmt.Errorf("%w: %w", ErrMissingProperty, err)
		}
		return fmt.Errorf("parse env: %w", err)
	}

	o.log.Debug("configuration loaded",
		zap.String("type", fmt.Sprintf("%T", target)),
		zap.String("file", o.file),
		zap.Strings("env_files", o.envFiles))
	return nil
}

// Provide loads a T and declares it in c as a prebuilt *T.
func Provide[T any](c grove.Container, opts ...Option) (*T, error) {
	cfg := new(T)
	if err := Load(cfg, opts...); err != nil {
		return nil, err
	}
	if err := grove.Provide(c, cfg); err != nil {
		return nil, fmt.Errorf("provide %T: %w", cfg, err)
	}
	return cfg, nil
}

func loadFile(target any, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// environment merges the .env files with the base environment. Missing .env
// files are skipped; they are usually absent in production.
func (o *options) environment() (map[string]string, error) {
	merged := make(map[string]string)
	for _, f := range o.envFiles {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			o.log.Debug("env file not found", zap.String("file", f))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", f, err)
		}
		for k, v := range vals {
			merged[k] = v
		}
	}

	base := o.environ
	if base == nil {
		base = env.ToMap(os.Environ())
	}
	for k, v := range base {
		merged[k] = v
	}
	return merged, nil
}
