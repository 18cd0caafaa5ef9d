package grove

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	beans         prometheus.Gauge
	unresolved    prometheus.Gauge
	buildDuration prometheus.Histogram
	buildFailures *prometheus.CounterVec
}

// newMetrics registers the build collectors with reg. Containers sharing a
// registerer share the collectors already registered there.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		beans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grove_beans_instantiated",
			Help: "Number of provided types materialized by the last build.",
		}),
		unresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grove_unresolved_dependencies",
			Help: "Number of dependency types without a provider at the last build.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grove_build_duration_seconds",
			Help:    "Time spent instantiating the bean graph.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		buildFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grove_build_failures_total",
				Help: "Number of failed builds by reason.",
			},
			[]string{"reason"},
		),
	}

	if reg != nil {
		m.beans = register(reg, m.beans)
		m.unresolved = register(reg, m.unresolved)
		m.buildDuration = register(reg, m.buildDuration)
		m.buildFailures = register(reg, m.buildFailures)
	}
	return m
}

// register returns the collector already registered under c's descriptor,
// if any. Other registration errors panic like MustRegister.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

func (m *metrics) observeBuild(start time.Time, beans *Beans, unresolved int, err error) {
	if m == nil {
		return
	}

	m.buildDuration.Observe(time.Since(start).Seconds())
	m.unresolved.Set(float64(unresolved))
	if beans != nil {
		m.beans.Set(float64(beans.Len()))
	}
	if err != nil {
		m.buildFailures.WithLabelValues(failureReason(err)).Inc()
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnresolvedDependency):
		return "unresolved"
	case errors.Is(err, ErrCyclicDependency):
		return "cycle"
	case errors.Is(err, ErrConstructionFailure):
		return "construction"
	default:
		return "other"
	}
}
