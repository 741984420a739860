// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal tracks processed conversation turns by outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turns_total",
			Help: "Total conversation turns processed",
		},
		[]string{"tenant", "result"},
	)

	// TurnDuration tracks end-to-end turn pipeline duration.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "turn_duration_seconds",
			Help:    "Turn pipeline duration in seconds",
			Buckets: []float64{.5, 1, 2, 5, 8, 10, 15, 20, 30},
		},
		[]string{"tenant"},
	)

	// LLMRequestDuration tracks generation call duration.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// FollowupSweepsTotal tracks scanner sweeps.
	FollowupSweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_sweeps_total",
			Help: "Total followup scanner sweeps",
		},
		[]string{"result"},
	)

	// FollowupsSentTotal tracks dispatched followups by tier.
	FollowupsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followups_sent_total",
			Help: "Total followup messages dispatched",
		},
		[]string{"tenant", "tier"},
	)

	// ChannelSendsTotal tracks outbound channel sends.
	ChannelSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_sends_total",
			Help: "Total outbound channel send attempts",
		},
		[]string{"channel", "status"},
	)

	// VoiceDispatchTotal tracks executed voice followups.
	VoiceDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_dispatch_total",
			Help: "Total voice followup dispatches",
		},
		[]string{"lead_type", "result"},
	)

	// VoiceQueueDepth tracks pending entries in the due-time index.
	VoiceQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voice_queue_depth",
			Help: "Pending entries in the voice followup queue",
		},
	)
)

// RecordRequest records an HTTP request.
func RecordRequest(method, path, status string, durationSec float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSec)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTurn records a completed pipeline turn.
func RecordTurn(tenant, result string, durationSec float64) {
	TurnsTotal.WithLabelValues(tenant, result).Inc()
	TurnDuration.WithLabelValues(tenant).Observe(durationSec)
}

// RecordLLMRequest records one generation call.
func RecordLLMRequest(provider, status string, durationSec float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(provider, status).Observe(durationSec)
	LLMTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
}
