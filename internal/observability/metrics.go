package observability

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for ChatStreams.
const (
	OutcomeCompleted   = "completed"
	OutcomeInterrupted = "interrupted"
	OutcomeTimeout     = "timeout"
	OutcomeCanceled    = "canceled"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
)

var (
	// ChatStreams counts relay attempts by how they ended.
	ChatStreams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_streams_total",
			Help: "Chat relay streams by outcome.",
		},
		[]string{"outcome"},
	)

	// ChatStreamTokens counts content fragments relayed to clients.
	ChatStreamTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_stream_tokens_total",
			Help: "Content fragments relayed from the completion provider.",
		},
	)

	// ChatStreamDuration observes the lifetime of a relay from upstream open
	// to the terminal event.
	ChatStreamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_stream_duration_seconds",
			Help:    "Duration of chat relay streams in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	// Submissions counts form submissions by kind (onboarding|contact) and
	// outcome (created|invalid|failed|replayed).
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Form submissions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(ChatStreams, ChatStreamTokens, ChatStreamDuration, Submissions)
}
