package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/PKayu/cannabis-compare-sub000/pkg/events"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

const (
	HeaderSource      = "source"
	HeaderBatchID     = "batch_id"
	HeaderEventType   = "type"
	HeaderTraceParent = "traceparent"
)

// Header represents a Kafka message header
type Header struct {
	Key   string
	Value []byte
}

// MessageHeaders are the headers the catalog reads and writes
type MessageHeaders struct {
	Source      string
	BatchID     string
	EventType   string
	TraceParent string
}

// ToKafkaHeaders converts MessageHeaders to a slice of header key-value pairs
func (h *MessageHeaders) ToKafkaHeaders() []Header {
	headers := make([]Header, 0, 4)

	if h.Source != "" {
		headers = append(headers, Header{Key: HeaderSource, Value: []byte(h.Source)})
	}
	if h.BatchID != "" {
		headers = append(headers, Header{Key: HeaderBatchID, Value: []byte(h.BatchID)})
	}
	if h.EventType != "" {
		headers = append(headers, Header{Key: HeaderEventType, Value: []byte(h.EventType)})
	}
	if h.TraceParent != "" {
		headers = append(headers, Header{Key: HeaderTraceParent, Value: []byte(h.TraceParent)})
	}

	return headers
}

// ExtractHeaders extracts MessageHeaders from Kafka headers
func ExtractHeaders(headers []Header) MessageHeaders {
	var mh MessageHeaders
	for _, h := range headers {
		switch h.Key {
		case HeaderSource:
			mh.Source = string(h.Value)
		case HeaderBatchID:
			mh.BatchID = string(h.Value)
		case HeaderEventType:
			mh.EventType = string(h.Value)
		case HeaderTraceParent:
			mh.TraceParent = string(h.Value)
		}
	}
	return mh
}

// ParseListingBatch decodes one scraper run. Source and batch id fall back to
// the message headers when the body leaves them out.
func ParseListingBatch(data []byte, headers MessageHeaders) (*models.ListingBatch, error) {
	var batch models.ListingBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse listing batch: %w", err)
	}
	if batch.Source == "" {
		batch.Source = headers.Source
	}
	if batch.ID == "" {
		batch.ID = headers.BatchID
	}
	return &batch, nil
}

// EventHeaders builds the headers published alongside a catalog event.
func EventHeaders(evt *events.CatalogEvent, traceParent string) MessageHeaders {
	return MessageHeaders{
		Source:      evt.Source,
		BatchID:     evt.BatchID,
		EventType:   string(evt.Type),
		TraceParent: traceParent,
	}
}
