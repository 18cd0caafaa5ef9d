package grove

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantiateBeans(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		beans := mustInstantiate(t, NewGraph())
		assert.Equal(t, 0, beans.Len())
	})

	t.Run("capability keys share one singleton", func(t *testing.T) {
		g := NewGraph()
		mustDeclare(t, g, newTestFile, DefaultPriority, Singleton,
			Capability[testReader](), Capability[testWriter]())

		beans := mustInstantiate(t, g)
		r := lookup[testReader](t, beans)
		w := lookup[testWriter](t, beans)
		f := lookup[*testFile](t, beans)
		assert.Same(t, f, r)
		assert.Same(t, f, w)
	})

	t.Run("transient capability keys get separate instances", func(t *testing.T) {
		g := NewGraph()
		mustDeclare(t, g, newTestFile, DefaultPriority, Transient, Capability[testReader]())

		beans := mustInstantiate(t, g)
		assert.NotSame(t, lookup[*testFile](t, beans), lookup[testReader](t, beans))
	})

	t.Run("singletons are shared between consumers", func(t *testing.T) {
		g := NewGraph()
		ids := 0
		mustDeclare(t, g, func() *testSingletonA { ids++; return &testSingletonA{id: ids} }, DefaultPriority, Singleton)
		mustDeclare(t, g, func() *testSingletonB { ids++; return &testSingletonB{id: ids} }, DefaultPriority, Singleton)
		mustDeclare(t, g, func(a *testSingletonA, b *testSingletonB) *testConsumer1 {
			return &testConsumer1{A: a, B: b}
		}, DefaultPriority, Singleton)
		mustDeclare(t, g, func(a *testSingletonA, b *testSingletonB) *testConsumer2 {
			return &testConsumer2{A: a, B: b}
		}, DefaultPriority, Singleton)

		beans := mustInstantiate(t, g)
		c1 := lookup[*testConsumer1](t, beans)
		c2 := lookup[*testConsumer2](t, beans)
		assert.Same(t, c1.A, c2.A)
		assert.Same(t, c1.B, c2.B)
		assert.Equal(t, 2, ids)
	})

	t.Run("singleton with several keys is constructed once", func(t *testing.T) {
		calls := 0
		g := NewGraph()
		mustDeclare(t, g, newTestLogger, DefaultPriority, Singleton)
		mustDeclare(t, g, func(l *testLogger) *testFile {
			calls++
			return &testFile{data: l.Prefix}
		}, DefaultPriority, Singleton, Capability[testReader](), Capability[testWriter]())

		mustInstantiate(t, g)
		assert.Equal(t, 1, calls)
	})

	t.Run("dependencies are materialized before their consumers", func(t *testing.T) {
		g := NewGraph()
		var seen *testDatabase
		mustDeclare(t, g, func(db *testDatabase, log *testLogger) *testUserRepo {
			seen = db
			require.NotNil(t, db.Config)
			require.NotNil(t, db.Logger)
			return &testUserRepo{DB: db, Logger: log}
		}, DefaultPriority, Singleton)
		mustDeclare(t, g, newTestDatabase, DefaultPriority, Singleton)
		mustDeclare(t, g, newTestConfig, DefaultPriority, Singleton)
		mustDeclare(t, g, newTestLogger, DefaultPriority, Singleton)

		beans := mustInstantiate(t, g)
		assert.Same(t, lookup[*testDatabase](t, beans), seen)
		assert.Equal(t, "postgres://localhost", seen.Config.DSN)
	})

	t.Run("order lists dependencies first", func(t *testing.T) {
		g := NewGraph()
		mustDeclare(t, g, newTestUserService, DefaultPriority, Singleton)
		mustDeclare(t, g, newTestUserRepo, DefaultPriority, Singleton)
		mustDeclare(t, g, newTestDatabase, DefaultPriority, Singleton)
		mustDeclare(t, g, newTestConfig, DefaultPriority, Singleton)
		mustDeclare(t, g, newTestLogger, DefaultPriority, Singleton)

		beans := mustInstantiate(t, g)
		pos := make(map[reflect.Type]int)
		for i, typ := range beans.Order() {
			pos[typ] = i
		}
		before := func(dep, consumer any) {
			assert.Less(t, pos[reflect.TypeOf(dep)], pos[reflect.TypeOf(consumer)])
		}
		before(&testConfig{}, &testDatabase{})
		before(&testLogger{}, &testDatabase{})
		before(&testDatabase{}, &testUserRepo{})
		before(&testUserRepo{}, &testUserService{})
	})

	t.Run("second call returns ErrAlreadyBuilt", func(t *testing.T) {
		g := NewGraph()
		mustInstantiate(t, g)

		_, err := g.InstantiateBeans()
		assert.ErrorIs(t, err, ErrAlreadyBuilt)
	})
}

func TestInstantiateBeans_Unresolved(t *testing.T) {
	g := NewGraph()
	mustDeclare(t, g, newTestDatabase, DefaultPriority, Singleton)
	mustDeclare(t, g, newTestOrderService, DefaultPriority, Singleton)
	mustDeclare(t, g, newTestConfig, DefaultPriority, Singleton)

	_, err := g.InstantiateBeans()
	require.ErrorIs(t, err, ErrUnresolvedDependency)

	var ue *UnresolvedDependencyError
	require.True(t, errors.As(err, &ue))
	loggerType := reflect.TypeOf(&testLogger{})
	assert.Equal(t, []reflect.Type{loggerType}, ue.Missing)
	assert.ElementsMatch(t, []reflect.Type{
		reflect.TypeOf(&testDatabase{}),
		reflect.TypeOf(&testOrderService{}),
	}, ue.Consumers[loggerType])
	assert.Contains(t, err.Error(), "*grove.testLogger")
}

func TestInstantiateBeans_Cycles(t *testing.T) {
	t.Run("two beans", func(t *testing.T) {
		g := NewGraph()
		mustDeclare(t, g, func(b *testCircB) *testCircA { return &testCircA{B: b} }, DefaultPriority, Singleton)
		mustDeclare(t, g, func(a *testCircA) *testCircB { return &testCircB{} }, DefaultPriority, Singleton)

		done := make(chan error, 1)
		go func() {
			_, err := g.InstantiateBeans()
			done <- err
		}()

		select {
		case err := <-done:
			require.ErrorIs(t, err, ErrCyclicDependency)
			var ce *CycleError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, []reflect.Type{
				reflect.TypeOf(&testCircA{}),
				reflect.TypeOf(&testCircB{}),
				reflect.TypeOf(&testCircA{}),
			}, ce.Chain)
		case <-time.After(time.Second):
			t.Fatal("instantiation did not terminate")
		}
	})

	t.Run("three beans with a bystander", func(t *testing.T) {
		g := NewGraph()
		mustDeclare(t, g, newTestCircA, DefaultPriority, Singleton)
		mustDeclare(t, g, newTestCircB, DefaultPriority, Singleton)
		mustDeclare(t, g, newTestCircC, DefaultPriority, Singleton)
		mustDeclare(t, g, func(*testCircC) *testLogger { return &testLogger{} }, DefaultPriority, Singleton)

		_, err := g.InstantiateBeans()
		require.ErrorIs(t, err, ErrCyclicDependency)
		assert.Contains(t, err.Error(), "*grove.testCircA -> *grove.testCircB -> *grove.testCircC -> *grove.testCircA")
	})

	t.Run("self dependency", func(t *testing.T) {
		g := NewGraph()
		mustDeclare(t, g, func(*testLogger) *testLogger { return &testLogger{} }, DefaultPriority, Singleton)

		_, err := g.InstantiateBeans()
		assert.ErrorIs(t, err, ErrCyclicDependency)
	})

	t.Run("cycle through a capability", func(t *testing.T) {
		g := NewGraph()
		mustDeclare(t, g, func(*testOrderService) testService { return &testUserService{} }, DefaultPriority, Singleton)
		mustDeclare(t, g, func(testService) *testOrderService { return &testOrderService{} }, DefaultPriority, Singleton)

		_, err := g.InstantiateBeans()
		assert.ErrorIs(t, err, ErrCyclicDependency)
	})
}

func TestInstantiateBeans_ConstructionFailure(t *testing.T) {
	cause := errors.New("connection refused")

	g := NewGraph()
	mustDeclare(t, g, newTestLogger, DefaultPriority, Singleton)
	mustDeclare(t, g, func(*testLogger) (*testConfig, error) { return nil, cause }, DefaultPriority, Singleton)
	mustDeclare(t, g, newTestDatabase, DefaultPriority, Singleton)

	_, err := g.InstantiateBeans()
	require.ErrorIs(t, err, ErrConstructionFailure)
	require.ErrorIs(t, err, cause)

	var ce *ConstructionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, reflect.TypeOf(&testConfig{}), ce.Type)
}
