// Package metrics registers the Prometheus collectors of the chat pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Capability labels for Degraded.
const (
	CapabilityVector = "vector"
	CapabilityCache  = "cache"
	CapabilityWeb    = "web"
	CapabilityModel  = "model"
	CapabilityStore  = "store"
)

var (
	// Degraded counts operations that continued with reduced functionality.
	Degraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskdesk",
		Name:      "degraded_total",
		Help:      "Operations that silently degraded because a capability was unavailable",
	}, []string{"capability"})

	// AnswerPath counts chat answers by the path that produced them.
	AnswerPath = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskdesk",
		Name:      "chat_answers_total",
		Help:      "Chat answers by producing path",
	}, []string{"path"})

	ChatLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "taskdesk",
		Name:      "chat_turn_duration_seconds",
		Help:      "Duration of one chat turn",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	EmbeddingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskdesk",
		Name:      "embedding_records",
		Help:      "Records written by the last embedding rebuild",
	})

	EmbeddingSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskdesk",
		Name:      "embedding_chunks_skipped_total",
		Help:      "Chunks skipped because their embedding came back empty",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
