// Package events describes the catalog changes announced to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

	"github.com/PKayu/cannabis-compare-sub000/pkg/appctx"
)

type Type string

const (
	TypeListingResolved Type = "listing.resolved"
	TypeListingFlagged  Type = "listing.flagged"
	TypeReviewApproved  Type = "review.approved"
	TypeReviewRejected  Type = "review.rejected"
)

// CatalogEvent is published once the change it describes has committed.
type CatalogEvent struct {
	Type          Type             `json:"type"`
	Source        string           `json:"source"`
	BatchID       string           `json:"batch_id,omitempty"`
	Decision      string           `json:"decision,omitempty"`
	ParentID      string           `json:"parent_id,omitempty"`
	VariantID     string           `json:"variant_id,omitempty"`
	VariantIsNew  bool             `json:"variant_is_new,omitempty"`
	ReviewEntryID string           `json:"review_entry_id,omitempty"`
	RawName       string           `json:"raw_name,omitempty"`
	WeightLabel   string           `json:"weight_label,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Confidence    *float64         `json:"confidence,omitempty"`
	ResolvedBy    string           `json:"resolved_by,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Key groups events for one variant, or one review entry, onto one partition.
func (e *CatalogEvent) Key() string {
	switch {
	case e.VariantID != "":
		return e.VariantID
	case e.ReviewEntryID != "":
		return e.ReviewEntryID
	default:
		return e.Source
	}
}

type Publisher interface {
	PublishEvents(ctx context.Context, events []*CatalogEvent) error
}

// Emitter publishes events when a publisher is configured. Publish failures
// are logged and never undo the committed change.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter accepts a nil publisher, in which case events are only logged at debug.
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

func (e *Emitter) Emit(ctx context.Context, events ...*CatalogEvent) {
	if len(events) == 0 {
		return
	}

	now := time.Now().UTC()
	for _, evt := range events {
		if evt.Timestamp.IsZero() {
			evt.Timestamp = now
		}
		if evt.Source == "" {
			evt.Source = appctx.GetSource(ctx)
		}
		if evt.BatchID == "" {
			evt.BatchID = appctx.GetBatchID(ctx)
		}
	}

	if e.publisher == nil {
		e.logger.WithContext(ctx).WithField("count", len(events)).Debug("No event publisher configured, dropping catalog events")
		return
	}

	if err := e.publisher.PublishEvents(ctx, events); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("count", len(events)).Error("Failed to publish catalog events")
	}
}
