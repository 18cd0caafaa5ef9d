package grove

import (
	"errors"
	"fmt"
	"reflect"
)

var errorType = typeOf[error]()

// strategy produces the instance for a bean. One strategy is shared by all
// graph nodes a bean fans out to, so a singleton cache is seen by every key.
type strategy interface {
	create(args []reflect.Value) (reflect.Value, error)
	concrete() reflect.Type
	lifetime() Lifetime
}

// factoryStrategy calls a constructor. For singletons the first successful
// result is cached and returned on every later call.
type factoryStrategy struct {
	constructor reflect.Value
	outType     reflect.Type
	life        Lifetime

	instance reflect.Value
	created  bool
}

func newFactoryStrategy(constructor reflect.Value, life Lifetime) (*factoryStrategy, error) {
	typ := constructor.Type()
	if typ.Kind() != reflect.Func {
		return nil, errors.New("constructor must be a function")
	}
	if typ.NumOut() == 0 || typ.NumOut() > 2 {
		return nil, errors.New("constructor must return (T) or (T, error)")
	}
	if typ.NumOut() == 2 && !typ.Out(1).Implements(errorType) {
		return nil, errors.New("second return value must implement error")
	}
	if typ.IsVariadic() {
		return nil, errors.New("constructor must not be variadic")
	}

	return &factoryStrategy{
		constructor: constructor,
		outType:     typ.Out(0),
		life:        life,
	}, nil
}

// newDefaultStrategy builds a transient strategy that produces the zero
// value of t: a freshly allocated struct for pointer types.
func newDefaultStrategy(t reflect.Type) *factoryStrategy {
	ctorType := reflect.FuncOf(nil, []reflect.Type{t}, false)
	ctor := reflect.MakeFunc(ctorType, func([]reflect.Value) []reflect.Value {
		if t.Kind() == reflect.Pointer {
			return []reflect.Value{reflect.New(t.Elem())}
		}
		return []reflect.Value{reflect.New(t).Elem()}
	})

	return &factoryStrategy{
		constructor: ctor,
		outType:     t,
		life:        Transient,
	}
}

func (s *factoryStrategy) concrete() reflect.Type { return s.outType }

func (s *factoryStrategy) lifetime() Lifetime { return s.life }

// dependencies returns the parameter types of the constructor in order.
func (s *factoryStrategy) dependencies() []reflect.Type {
	typ := s.constructor.Type()
	deps := make([]reflect.Type, typ.NumIn())
	for i := range deps {
		deps[i] = typ.In(i)
	}
	return deps
}

func (s *factoryStrategy) create(args []reflect.Value) (reflect.Value, error) {
	if s.life == Singleton && s.created {
		return s.instance, nil
	}

	out, err := s.call(args)
	if err != nil {
		return reflect.Value{}, &ConstructionError{Type: s.outType, Err: err}
	}

	if s.life == Singleton {
		s.instance = out
		s.created = true
	}
	return out, nil
}

func (s *factoryStrategy) call(args []reflect.Value) (out reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = reflect.Value{}
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	results := s.constructor.Call(args)
	if len(results) == 2 && !results[1].IsNil() {
		return reflect.Value{}, results[1].Interface().(error)
	}
	return results[0], nil
}

// instanceStrategy hands out a value that was built outside the graph.
type instanceStrategy struct {
	typ      reflect.Type
	instance reflect.Value
}

func newInstanceStrategy(t reflect.Type, instance any) (*instanceStrategy, error) {
	if instance == nil {
		return &instanceStrategy{typ: t, instance: reflect.Zero(t)}, nil
	}
	val := reflect.ValueOf(instance)
	if !val.Type().AssignableTo(t) {
		return nil, fmt.Errorf("%w: instance of %s is not assignable to %s", ErrInvalidCapability, val.Type(), t)
	}
	return &instanceStrategy{typ: t, instance: val}, nil
}

func (s *instanceStrategy) create([]reflect.Value) (reflect.Value, error) {
	return s.instance, nil
}

func (s *instanceStrategy) concrete() reflect.Type { return s.typ }

// Prebuilt instances are shared by construction.
func (s *instanceStrategy) lifetime() Lifetime { return Singleton }
