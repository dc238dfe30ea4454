package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/PKayu/cannabis-compare-sub000/pkg/events"
	"github.com/PKayu/cannabis-compare-sub000/pkg/metrics"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

// Producer publishes catalog events to Kafka
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	config ProducerConfig
}

// NewProducer creates a new Kafka producer
func NewProducer(config ProducerConfig, logger ectologger.Logger) (*Producer, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	var compression kafka.Compression
	switch config.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	default:
		compression = 0 // No compression
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{}, // Hash by key for partition affinity
		BatchSize:              config.BatchSize,
		BatchTimeout:           config.BatchTimeout,
		MaxAttempts:            config.MaxAttempts,
		WriteTimeout:           config.WriteTimeout,
		Compression:            compression,
		RequiredAcks:           kafka.RequiredAcks(config.RequiredAcks),
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		config: config,
	}, nil
}

// PublishEvents writes events in one call so a batch's announcements stay together.
func (p *Producer) PublishEvents(ctx context.Context, evts []*events.CatalogEvent) error {
	if len(evts) == 0 {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishEvents")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.config.Topic),
		attribute.String("messaging.operation", "publish"),
		attribute.Int("messaging.batch.message_count", len(evts)),
	)

	traceParent := tracing.GetTraceParent(ctx)
	messages := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		data, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to serialize %s event: %w", evt.Type, err)
		}

		headers := EventHeaders(evt, traceParent)
		kafkaHeaders := make([]kafka.Header, 0, 4)
		for _, h := range headers.ToKafkaHeaders() {
			kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: h.Key, Value: h.Value})
		}

		messages = append(messages, kafka.Message{
			Key:     []byte(evt.Key()),
			Value:   data,
			Headers: kafkaHeaders,
			Time:    evt.Timestamp,
		})
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		metrics.RecordKafkaPublish(p.config.Topic, "error", time.Since(start).Seconds())
		p.logger.WithContext(ctx).WithError(err).Errorf("Failed to publish %d events to Kafka topic %s", len(messages), p.config.Topic)
		return tracing.Fail(span, fmt.Errorf("failed to publish events: %w", err))
	}
	metrics.RecordKafkaPublish(p.config.Topic, "success", time.Since(start).Seconds())

	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
