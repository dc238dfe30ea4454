package kafka

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/PKayu/cannabis-compare-sub000/pkg/appctx"
	"github.com/PKayu/cannabis-compare-sub000/pkg/metrics"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

// BatchHandler processes one listing batch. The offset is committed only
// after it returns nil or a permanent (4xx) error.
type BatchHandler func(ctx context.Context, batch *models.ListingBatch) error

// Consumer reads listing batches from Kafka, one batch per message
type Consumer struct {
	reader  *kafka.Reader
	logger  ectologger.Logger
	config  ConsumerConfig
	handler BatchHandler
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	running bool
	mu      sync.Mutex
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config ConsumerConfig, logger ectologger.Logger) (*Consumer, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if config.GroupID == "" {
		return nil, fmt.Errorf("group ID is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           config.Brokers,
		Topic:             config.Topic,
		GroupID:           config.GroupID,
		MinBytes:          config.MinBytes,
		MaxBytes:          config.MaxBytes,
		MaxWait:           config.MaxWait,
		StartOffset:       config.StartOffset,
		SessionTimeout:    config.SessionTimeout,
		HeartbeatInterval: config.HeartbeatInterval,
	})

	return &Consumer{
		reader: reader,
		logger: logger,
		config: config,
	}, nil
}

// Start begins consuming messages in the background
func (c *Consumer) Start(ctx context.Context, handler BatchHandler) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("consumer is already running")
	}
	c.running = true
	c.handler = handler
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Infof("Kafka consumer started for topic %s (group: %s)", c.config.Topic, c.config.GroupID)
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close reader: %w", err)
	}

	c.logger.Info("Kafka consumer stopped")
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.WithError(err).Error("Failed to fetch message")
			continue
		}

		if !c.handleMessage(ctx, msg) {
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.WithError(err).Errorf("Failed to commit message at offset %d", msg.Offset)
		}
	}
}

// handleMessage returns false only when ctx ended before the batch was handled.
func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message) bool {
	kafkaHeaders := make([]Header, len(msg.Headers))
	for i, h := range msg.Headers {
		kafkaHeaders[i] = Header{Key: h.Key, Value: h.Value}
	}
	headers := ExtractHeaders(kafkaHeaders)

	if headers.TraceParent != "" {
		ctx = tracing.WithTraceParent(ctx, headers.TraceParent)
	}

	batch, err := ParseListingBatch(msg.Value, headers)
	if err != nil {
		// a malformed message will never parse, so it is committed and skipped
		c.logger.WithContext(ctx).WithError(err).Errorf("Failed to parse message at offset %d", msg.Offset)
		metrics.RecordKafkaConsume("malformed")
		return true
	}

	ctx = appctx.SetSource(ctx, batch.Source)
	if batch.ID != "" {
		ctx = appctx.SetBatchID(ctx, batch.ID)
	}

	backoff := c.config.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := max(c.config.MaxRetryBackoff, backoff)
	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, batch)
		if err == nil {
			metrics.RecordKafkaConsume("success")
			return true
		}
		if isPermanent(err) {
			c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"offset": msg.Offset,
				"source": batch.Source,
			}).Error("Rejected listing batch")
			metrics.RecordKafkaConsume("rejected")
			return true
		}

		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"offset":  msg.Offset,
			"source":  batch.Source,
			"attempt": attempt,
		}).Warnf("Listing batch failed, retrying in %s", backoff)
		metrics.RecordKafkaConsume("retry")

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func isPermanent(err error) bool {
	if !httperror.IsHTTPError(err) {
		return false
	}
	status := httperror.GetStatusCode(err)
	return status >= http.StatusBadRequest && status < http.StatusInternalServerError
}

// Lag returns the current consumer lag
func (c *Consumer) Lag() int64 {
	return c.reader.Stats().Lag
}
