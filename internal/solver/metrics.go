package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "vlsens"

// Metrics counts the kernel and seed activity of one instance. Each
// instance owns its registry so that counters never mix between instances.
type Metrics struct {
	// KernelCalls counts kernel entry points.
	// Labels: entry, status (ok, error)
	KernelCalls *prometheus.CounterVec

	// SeedClears counts seed-store clears.
	// Labels: direction (forward, reverse)
	SeedClears *prometheus.CounterVec

	// AdjointSolves counts transposed solves.
	// Labels: family (func, stab, control)
	AdjointSolves *prometheus.CounterVec

	// Loads counts geometry loads, reloads included.
	Loads prometheus.Counter

	registry *prometheus.Registry
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		KernelCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "kernel",
			Name:      "calls_total",
			Help:      "Kernel entry point invocations",
		}, []string{"entry", "status"}),
		SeedClears: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "seeds",
			Name:      "clears_total",
			Help:      "Seed store clears by direction",
		}, []string{"direction"}),
		AdjointSolves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "adjoint",
			Name:      "solves_total",
			Help:      "Transposed linear solves by derivative family",
		}, []string{"family"}),
		Loads: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "loads_total",
			Help:      "Geometry loads",
		}),
		registry: reg,
	}
}

// Registry exposes the instance's collectors for scraping or inspection.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
