// Package review resolves flagged listings held in the review queue.
package review

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/reviewqueue"
	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
	"github.com/PKayu/cannabis-compare-sub000/pkg/events"
	"github.com/PKayu/cannabis-compare-sub000/pkg/metrics"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/normalizers"
	"github.com/PKayu/cannabis-compare-sub000/pkg/resolver"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
	"github.com/PKayu/cannabis-compare-sub000/pkg/weight"
)

type EntryStore interface {
	Get(ctx context.Context, id string) (*models.ReviewQueueEntry, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.ReviewQueueEntry, error)
	CountPending(ctx context.Context) (int, error)
	MarkResolved(ctx context.Context, id string, status models.ReviewStatus, parentID, variantID string, resolvedBy *string) error
}

type PriceStore interface {
	Upsert(ctx context.Context, variantID, source string, amount decimal.Decimal, observedAt time.Time) (*models.Price, error)
}

type ProductGetter interface {
	Get(ctx context.Context, id string) (*models.Product, error)
}

// Service moves entries from pending to approved or rejected. Both
// transitions create a variant and attach the stored price to it.
type Service struct {
	db       database.DB
	entries  EntryStore
	products ProductGetter
	prices   PriceStore
	resolver *resolver.EntityResolver
	emitter  *events.Emitter
	logger   ectologger.Logger
}

func NewService(db database.DB, entries EntryStore, products ProductGetter, prices PriceStore, entityResolver *resolver.EntityResolver, emitter *events.Emitter, logger ectologger.Logger) *Service {
	return &Service{
		db:       db,
		entries:  entries,
		products: products,
		prices:   prices,
		resolver: entityResolver,
		emitter:  emitter,
		logger:   logger,
	}
}

// Page is one page of pending entries
type Page struct {
	Entries []models.ReviewQueueEntry `json:"entries"`
	Total   int                       `json:"total"`
	Limit   int                       `json:"limit"`
	Offset  int                       `json:"offset"`
}

func (s *Service) ListPending(ctx context.Context, limit, offset int) (*Page, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.ListPending")
	defer span.End()

	limit, offset = reviewqueue.Page(limit, offset)
	entries, err := s.entries.ListPending(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.entries.CountPending(ctx)
	if err != nil {
		return nil, err
	}

	return &Page{Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.ReviewQueueEntry, error) {
	return s.entries.Get(ctx, id)
}

// Approve creates the entry's variant under the suggested parent.
func (s *Service) Approve(ctx context.Context, id, reviewer string) (*models.ReviewOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.Approve")
	defer span.End()

	return s.transition(ctx, id, reviewer, models.ReviewStatusApproved, func(ctx context.Context, entry *models.ReviewQueueEntry) (*models.Product, error) {
		parent, err := s.products.Get(ctx, entry.SuggestedParentID)
		if err != nil {
			return nil, err
		}
		if !parent.IsMaster {
			return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("suggested product %s is not a parent", parent.ID))
		}
		return parent, nil
	})
}

// Reject creates a new parent from the entry's original name, never the
// suggested one, and puts the variant under it.
func (s *Service) Reject(ctx context.Context, id, reviewer string) (*models.ReviewOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.Reject")
	defer span.End()

	return s.transition(ctx, id, reviewer, models.ReviewStatusRejected, func(ctx context.Context, entry *models.ReviewQueueEntry) (*models.Product, error) {
		name := weight.CleanName(entry.OriginalName)
		if normalizers.ProductName(name) == "" {
			return nil, httperror.NewHTTPError(http.StatusUnprocessableEntity, models.ErrEmptyName.Error())
		}
		return s.resolver.CreateParent(ctx, name, entry.BrandName, entry.Category, entry.THC(), entry.CBD())
	})
}

type parentFunc func(ctx context.Context, entry *models.ReviewQueueEntry) (*models.Product, error)

func (s *Service) transition(ctx context.Context, id, reviewer string, status models.ReviewStatus, parentFor parentFunc) (*models.ReviewOutcome, error) {
	logger := s.logger.WithContext(ctx).WithFields(map[string]any{
		"entry_id": id,
		"status":   status,
	})

	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status.IsTerminal() {
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("review queue entry %s is already %s", id, entry.Status))
	}

	parent, err := parentFor(ctx, entry)
	if err != nil {
		return nil, err
	}

	variant, created, err := s.resolver.Variants().Resolve(ctx, parent, entry.Weight(), entry.THC(), entry.CBD())
	if err != nil {
		return nil, err
	}

	if _, err := s.prices.Upsert(ctx, variant.ID, entry.Source, entry.Price, entry.UpdatedAt); err != nil {
		return nil, err
	}

	var resolvedBy *string
	if reviewer != "" {
		resolvedBy = &reviewer
	}
	if err := s.entries.MarkResolved(ctx, id, status, parent.ID, variant.ID, resolvedBy); err != nil {
		return nil, err
	}

	resolved, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.RecordReviewTransition(string(status))
	logger.WithFields(map[string]any{
		"parent_id":   parent.ID,
		"variant_id":  variant.ID,
		"variant_new": created,
		"reviewer":    reviewer,
	}).Info("Resolved review queue entry")

	eventType := events.TypeReviewApproved
	if status == models.ReviewStatusRejected {
		eventType = events.TypeReviewRejected
	}
	price := entry.Price
	confidence := entry.Confidence
	s.emitter.Emit(ctx, &events.CatalogEvent{
		Type:          eventType,
		Source:        entry.Source,
		ParentID:      parent.ID,
		VariantID:     variant.ID,
		VariantIsNew:  created,
		ReviewEntryID: entry.ID,
		RawName:       entry.OriginalName,
		WeightLabel:   entry.WeightLabel,
		Price:         &price,
		Confidence:    &confidence,
		ResolvedBy:    reviewer,
	})

	return &models.ReviewOutcome{
		Entry:     resolved,
		ParentID:  parent.ID,
		VariantID: variant.ID,
	}, nil
}
