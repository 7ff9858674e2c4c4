package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Chat requests by strategy and outcome code",
		},
		[]string{"strategy", "outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of each answer pipeline stage in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"stage"},
	)

	StageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_fallbacks_total",
			Help: "Stages that degraded to their fallback value",
		},
		[]string{"stage", "reason"},
	)

	RetrievedSources = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrieval_sources_count",
			Help:    "Number of sources returned per retrieval",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
		},
	)

	FeedbackSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_submissions_total",
			Help: "Feedback records stored, by rate and schema version",
		},
		[]string{"rate", "schema_version"},
	)

	ChatInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_requests_in_flight",
			Help: "Chat requests currently being answered",
		},
	)
)
