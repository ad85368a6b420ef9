package metrics

import "github.com/prometheus/client_golang/prometheus"

// CallMetrics exposes counters for the call session engine.
type CallMetrics struct {
	startedTotal   prometheus.Counter
	completedTotal *prometheus.CounterVec
	turnsTotal     prometheus.Counter
}

func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	m := &CallMetrics{
		startedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aira",
			Subsystem: "calls",
			Name:      "started_total",
			Help:      "Total call sessions started",
		}),
		completedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aira",
			Subsystem: "calls",
			Name:      "ended_total",
			Help:      "Total call sessions ended",
		}, []string{"exit_reason"}),
		turnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aira",
			Subsystem: "calls",
			Name:      "turns_total",
			Help:      "Total turns appended to call histories",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.startedTotal, m.completedTotal, m.turnsTotal)
	return m
}

func (m *CallMetrics) ObserveStarted() {
	if m == nil {
		return
	}
	m.startedTotal.Inc()
}

func (m *CallMetrics) ObserveEnded(exitReason string) {
	if m == nil {
		return
	}
	m.completedTotal.WithLabelValues(exitReason).Inc()
}

func (m *CallMetrics) ObserveTurns(n int) {
	if m == nil {
		return
	}
	m.turnsTotal.Add(float64(n))
}

// PromptMetrics exposes counters for prompt lifecycle events.
type PromptMetrics struct {
	lifecycleTotal *prometheus.CounterVec
}

func NewPromptMetrics(reg prometheus.Registerer) *PromptMetrics {
	m := &PromptMetrics{
		lifecycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aira",
			Subsystem: "prompts",
			Name:      "lifecycle_total",
			Help:      "Total prompt lifecycle events",
		}, []string{"event"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.lifecycleTotal)
	return m
}

func (m *PromptMetrics) ObserveLifecycle(event string) {
	if m == nil {
		return
	}
	m.lifecycleTotal.WithLabelValues(event).Inc()
}
