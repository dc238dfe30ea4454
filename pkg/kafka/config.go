package kafka

import (
	"strings"
	"time"
)

// ConsumerConfig configures the listing batch consumer
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string

	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration

	// RetryBackoff is the first delay before a failed batch is retried; it doubles up to MaxRetryBackoff.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// DefaultConsumerConfig returns a ConsumerConfig with sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers:           []string{"localhost:9092"},
		Topic:             "scraped-listings",
		GroupID:           "catalog-resolver",
		MinBytes:          1,
		MaxBytes:          10e6, // 10MB
		MaxWait:           3 * time.Second,
		StartOffset:       FirstOffset,
		SessionTimeout:    30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		RetryBackoff:      time.Second,
		MaxRetryBackoff:   30 * time.Second,
	}
}

// ProducerConfig configures the catalog event producer
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration

	// RequiredAcks: 0 = no acks, 1 = leader only, -1 = all replicas
	RequiredAcks int
	MaxAttempts  int
	WriteTimeout time.Duration

	// Compression is one of none, gzip, snappy, lz4, zstd
	Compression string
}

// DefaultProducerConfig returns a ProducerConfig with sensible defaults
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "catalog-events",
		BatchSize:    100,
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: 1,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		Compression:  "snappy",
	}
}

// ParseBrokers splits a comma-separated broker list
func ParseBrokers(brokers []string) []string {
	var out []string
	for _, entry := range brokers {
		for _, broker := range strings.Split(entry, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				out = append(out, broker)
			}
		}
	}
	return out
}

// Offset constants
const (
	FirstOffset int64 = -2 // Start from the oldest message
	LastOffset  int64 = -1 // Start from the newest message
)
