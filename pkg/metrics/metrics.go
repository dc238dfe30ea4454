// Package metrics provides Prometheus metrics for the catalog service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolverListingsTotal tracks resolved listings by decision
	ResolverListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "resolver",
			Name:      "listings_total",
			Help:      "Total number of listings resolved by decision",
		},
		[]string{"decision"},
	)

	// ResolverListingsDropped tracks listings skipped at validation or dropped after a failure
	ResolverListingsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "resolver",
			Name:      "listings_dropped_total",
			Help:      "Total number of listings dropped by reason",
		},
		[]string{"reason"},
	)

	// IngestBatchDuration tracks how long a batch takes end to end
	IngestBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Duration of listing batch ingestion in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	// ReviewTransitionsTotal tracks approve and reject actions
	ReviewTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "review",
			Name:      "transitions_total",
			Help:      "Total number of review queue transitions by resulting status",
		},
		[]string{"status"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish duration
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	// KafkaMessagesConsumed tracks consumed batch messages by outcome
	KafkaMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Total number of listing batch messages consumed",
		},
		[]string{"status"},
	)
)

func RecordListing(decision string) {
	ResolverListingsTotal.WithLabelValues(decision).Inc()
}

func RecordDropped(reason string) {
	ResolverListingsDropped.WithLabelValues(reason).Inc()
}

func RecordBatch(status string, durationSeconds float64) {
	IngestBatchDuration.WithLabelValues(status).Observe(durationSeconds)
}

func RecordReviewTransition(status string) {
	ReviewTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}

func RecordKafkaConsume(status string) {
	KafkaMessagesConsumed.WithLabelValues(status).Inc()
}
