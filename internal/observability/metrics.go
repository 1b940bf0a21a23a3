package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the chat agent daemon.
type Metrics struct {
	registry      *prometheus.Registry
	ChatRequests  *prometheus.CounterVec
	ChatDuration  *prometheus.HistogramVec
	ChatRounds    prometheus.Histogram
	ToolRuns      *prometheus.CounterVec
	ModelFailures *prometheus.CounterVec
	ActiveStreams prometheus.Gauge
}

// NewMetrics constructs a metrics registry with agent collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "costwise_chat_requests_total",
		Help: "Total chat requests by outcome",
	}, []string{"outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "costwise_chat_duration_seconds",
		Help:    "Chat request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	rounds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "costwise_chat_rounds",
		Help:    "Tool-use rounds consumed per chat request",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
	})

	toolRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "costwise_tool_executions_total",
		Help: "Tool executions by tool name and outcome",
	}, []string{"tool", "outcome"})

	modelFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "costwise_model_failures_total",
		Help: "Model API failures by phase (plan or stream)",
	}, []string{"phase"})

	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "costwise_active_streams",
		Help: "Currently open SSE streams",
	})

	reg.MustRegister(reqs, durs, rounds, toolRuns, modelFailures, active)

	return &Metrics{
		registry:      reg,
		ChatRequests:  reqs,
		ChatDuration:  durs,
		ChatRounds:    rounds,
		ToolRuns:      toolRuns,
		ModelFailures: modelFailures,
		ActiveStreams: active,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordChat records outcome, duration and consumed rounds for one request.
func (m *Metrics) RecordChat(outcome string, duration time.Duration, rounds int) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.ChatRequests.WithLabelValues(outcome).Inc()
	m.ChatDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.ChatRounds.Observe(float64(rounds))
}

// RecordToolRun records a single tool execution.
func (m *Metrics) RecordToolRun(tool, outcome string) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.ToolRuns.WithLabelValues(tool, outcome).Inc()
}

// RecordModelFailure records a model API failure in the given phase.
func (m *Metrics) RecordModelFailure(phase string) {
	if m == nil {
		return
	}
	if phase == "" {
		phase = "unknown"
	}
	m.ModelFailures.WithLabelValues(phase).Inc()
}

// IncActiveStreams increments the open stream gauge.
func (m *Metrics) IncActiveStreams() {
	if m == nil {
		return
	}
	m.ActiveStreams.Inc()
}

// DecActiveStreams decrements the open stream gauge.
func (m *Metrics) DecActiveStreams() {
	if m == nil {
		return
	}
	m.ActiveStreams.Dec()
}
