package grove

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// Shared test types and constructors used across test files.

// mustRegister calls t.Fatal if registration fails.
func mustRegister(t *testing.T, c Container, constructor interface{}, opts ...Option) {
	t.Helper()
	require.NoError(t, c.Register(constructor, opts...), "Register")
}

// mustBuild calls t.Fatal if build fails.
func mustBuild(t *testing.T, c Container) {
	t.Helper()
	require.NoError(t, c.Build(), "Build")
}

// mustDeclare calls t.Fatal if a graph declaration fails.
func mustDeclare(t *testing.T, g *Graph, constructor any, priority int, life Lifetime, caps ...reflect.Type) {
	t.Helper()
	require.NoError(t, g.DeclareBean(constructor, priority, life, caps...), "DeclareBean")
}

// mustInstantiate calls t.Fatal if the graph cannot be instantiated.
func mustInstantiate(t *testing.T, g *Graph) *Beans {
	t.Helper()
	beans, err := g.InstantiateBeans()
	require.NoError(t, err, "InstantiateBeans")
	return beans
}

// lookup fetches T from beans and fails the test if it is missing.
func lookup[T any](t *testing.T, b *Beans) T {
	t.Helper()
	v, ok := Lookup[T](b)
	require.True(t, ok, "no bean for %s", typeOf[T]())
	return v
}

type testLogger struct{ Prefix string }
type testConfig struct{ DSN string }

type testDatabase struct {
	Config *testConfig
	Logger *testLogger
}

type testUserRepo struct {
	DB     *testDatabase
	Logger *testLogger
}

type testService interface {
	Name() string
}

type testUserService struct {
	Repo   *testUserRepo
	Logger *testLogger
}

func (s *testUserService) Name() string { return "user" }

type testOrderService struct{ Logger *testLogger }

func (s *testOrderService) Name() string { return "order" }

type testCircA struct{ B *testCircB }
type testCircB struct{ C *testCircC }
type testCircC struct{ A *testCircA }

func newTestLogger() *testLogger           { return &testLogger{Prefix: "app"} }
func newTestConfig() *testConfig           { return &testConfig{DSN: "postgres://localhost"} }
func newTestCircA(b *testCircB) *testCircA { return &testCircA{B: b} }
func newTestCircB(c *testCircC) *testCircB { return &testCircB{C: c} }
func newTestCircC(a *testCircA) *testCircC { return &testCircC{A: a} }

func newTestDatabase(cfg *testConfig, log *testLogger) *testDatabase {
	return &testDatabase{Config: cfg, Logger: log}
}

func newTestUserRepo(db *testDatabase, log *testLogger) *testUserRepo {
	return &testUserRepo{DB: db, Logger: log}
}

func newTestUserService(repo *testUserRepo, log *testLogger) *testUserService {
	return &testUserService{Repo: repo, Logger: log}
}

func newTestOrderService(log *testLogger) *testOrderService {
	return &testOrderService{Logger: log}
}

// Capability fixtures.

type testReader interface{ Read() string }
type testWriter interface{ Write(string) }

// testFile implements both testReader and testWriter.
type testFile struct{ data string }

func (f *testFile) Read() string    { return f.data }
func (f *testFile) Write(s string)  { f.data = s }
func (f *testFile) String() string  { return "file" }
func newTestFile() *testFile        { return &testFile{data: "contents"} }
func newTestFileReader() testReader { return &testFile{data: "reader"} }

type testNamer interface{ Name() string }
type testTitler interface {
	Name() string
	Title() string
}

// testNamed promotes testNamer; testReport reaches it through embedding.
type testNamed struct{ testNamer }

type testReport struct {
	testNamed
	io.Closer
}

// testAmbiguous promotes Name from two interfaces at the same depth and
// therefore implements neither.
type testAmbiguous struct {
	testNamer
	testTitler
}

// Singleton-sharing fixtures.

type testSingletonA struct{ id int }
type testSingletonB struct{ id int }

type testConsumer1 struct {
	A *testSingletonA
	B *testSingletonB
}

type testConsumer2 struct {
	A *testSingletonA
	B *testSingletonB
}

// testClock has no explicit bean and is resolved by its default fallback.
type testClock interface{ Now() int }
type testZeroClock struct{ ticks int }

func (c *testZeroClock) Now() int { return c.ticks }

type testScheduler struct{ Clock testClock }

func newTestScheduler(c testClock) *testScheduler { return &testScheduler{Clock: c} }

// testClosable is a singleton that implements io.Closer for shutdown tests.
type testClosable struct {
	Name   string
	Closed bool
	Order  *[]string // shared slice to record close order
}

func (c *testClosable) Close() error {
	c.Closed = true
	if c.Order != nil {
		*c.Order = append(*c.Order, c.Name)
	}
	return nil
}

// testFailCloser implements io.Closer but returns an error.
type testFailCloser struct{}

func (f *testFailCloser) Close() error {
	return errors.New("close failed")
}
