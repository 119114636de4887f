// Package metrics exposes the prometheus gauges/counters/histogram
// this server publishes, grounded on the teacher's promauto pattern but
// trimmed to what this domain actually produces: session lifecycle,
// exec latency, and tool-call outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveSessions tracks currently live shell sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessionmcp_active_sessions",
			Help: "Number of currently live shell sessions",
		},
	)

	// ExecDuration tracks exec_command wall-clock latency.
	ExecDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sessionmcp_exec_duration_seconds",
			Help:    "exec_command duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"}, // ok | timed_out | process_died
	)

	// ToolCalls counts every tools/call invocation by tool name and
	// whether the resulting envelope carried isError.
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionmcp_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	// SessionDuration records how long a session lived once stopped.
	SessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sessionmcp_session_duration_seconds",
			Help:    "Session lifetime in seconds, recorded on stop",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)
)

// Handler returns the Prometheus scrape handler for the optional debug
// listener (empty MetricsAddr disables it entirely; see cmd/sessionmcp).
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordToolCall records one tools/call outcome.
func RecordToolCall(tool string, isError bool) {
	status := "ok"
	if isError {
		status = "error"
	}
	ToolCalls.WithLabelValues(tool, status).Inc()
}

// RecordExec records one exec_command outcome.
func RecordExec(outcome string, elapsed time.Duration) {
	ExecDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordSessionStop records a session's total lifetime on stop.
func RecordSessionStop(uptime time.Duration) {
	SessionDuration.Observe(uptime.Seconds())
}
