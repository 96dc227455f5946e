// Package metrics provides Prometheus metrics for the session coordinator.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// gatewayCallsTotal records remote provider calls.
	// Labels:
	//   - op: gateway operation (e.g., "CreateMeeting", "DeleteMeeting")
	//   - status: "success" or "error"
	gatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_gateway_calls_total",
			Help: "Total number of remote meeting provider calls",
		},
		[]string{"op", "status"},
	)

	// gatewayCallDuration records remote provider call latency by operation.
	gatewayCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meeting_gateway_call_duration_seconds",
			Help:    "Duration of remote meeting provider calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	// activeSessions tracks the number of live sessions in the registry.
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meeting_active_sessions",
			Help: "Number of live sessions currently tracked by the registry",
		},
	)

	// sessionsRemovedTotal records session removals by reason.
	// Labels:
	//   - reason: "manual" or "expired"
	sessionsRemovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_sessions_removed_total",
			Help: "Total number of sessions removed from the registry",
		},
		[]string{"reason"},
	)

	// degradedTranscriptionsTotal records transitions into degraded
	// transcription mode.
	degradedTranscriptionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meeting_degraded_transcriptions_total",
			Help: "Total number of sessions that fell back to degraded transcription",
		},
	)
)

func init() {
	prometheus.MustRegister(gatewayCallsTotal)
	prometheus.MustRegister(gatewayCallDuration)
	prometheus.MustRegister(activeSessions)
	prometheus.MustRegister(sessionsRemovedTotal)
	prometheus.MustRegister(degradedTranscriptionsTotal)
}

// RecordGatewayCall records one remote provider call outcome and latency.
func RecordGatewayCall(op, status string, durationSeconds float64) {
	gatewayCallsTotal.WithLabelValues(op, status).Inc()
	gatewayCallDuration.WithLabelValues(op).Observe(durationSeconds)
}

// SetActiveSessions updates the live session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// RecordSessionRemoved records a session removal with its reason.
func RecordSessionRemoved(reason string) {
	sessionsRemovedTotal.WithLabelValues(reason).Inc()
}

// RecordDegradedTranscription records a fallback into degraded mode.
func RecordDegradedTranscription() {
	degradedTranscriptionsTotal.Inc()
}
