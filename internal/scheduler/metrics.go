package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the run-loop's Prometheus instruments, registered
// against a caller-supplied registry (usually a fresh
// prometheus.NewRegistry(), not the global DefaultRegisterer, so
// multiple orchestrator instances in the same test binary don't
// collide on registration).
type Metrics struct {
	WIPGauge            prometheus.Gauge
	ActionsSelected     *prometheus.CounterVec
	PhaseDuration       *prometheus.HistogramVec
	CircuitBreakerState prometheus.Gauge
}

// NewMetrics constructs and registers the run-loop's instruments.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WIPGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orcd_wip_gauge",
			Help: "Current number of in-flight scheduler actions.",
		}),
		ActionsSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orcd_actions_selected_total",
			Help: "Total scheduler actions selected, by kind.",
		}, []string{"action_kind"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "orcd_phase_duration_seconds",
			Help: "Phase execution duration in seconds, by phase and result.",
		}, []string{"phase", "result"}),
		CircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orcd_circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed, 1=half-open, 2=open.",
		}),
	}
	reg.MustRegister(m.WIPGauge, m.ActionsSelected, m.PhaseDuration, m.CircuitBreakerState)
	return m
}

func (m *Metrics) recordActions(actions []Action) {
	if m == nil {
		return
	}
	for _, a := range actions {
		m.ActionsSelected.WithLabelValues(string(a.Kind)).Inc()
	}
}

func (m *Metrics) recordPhaseDuration(phase, result string, seconds float64) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase, result).Observe(seconds)
}

func (m *Metrics) setWIP(n int) {
	if m == nil {
		return
	}
	m.WIPGauge.Set(float64(n))
}
