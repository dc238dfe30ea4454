package reviewqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

var columns = []string{
	"id", "source", "original_name", "brand_name", "category", "weight_raw", "weight_label", "weight_grams",
	"price", "thc_value", "thc_unit", "cbd_value", "cbd_unit", "suggested_parent_id", "confidence",
	"name_score", "brand_score", "potency_score", "status", "resolved_parent_id", "resolved_variant_id",
	"resolved_by", "created_at", "updated_at", "resolved_at",
}

// Repository handles review queue persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new review queue repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a pending entry
func (r *Repository) Create(ctx context.Context, entry *models.ReviewQueueEntry) (*models.ReviewQueueEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.Create")
	defer span.End()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	entry.Status = models.ReviewStatusPending

	ib := r.db.Flavor().NewInsertBuilder()
	ib.InsertInto("review_queue")
	ib.Cols(columns...)
	ib.Values(entry.ID, entry.Source, entry.OriginalName, entry.BrandName, entry.Category, entry.WeightRaw,
		entry.WeightLabel, entry.WeightGrams, entry.Price, entry.THCValue, entry.THCUnit, entry.CBDValue, entry.CBDUnit,
		entry.SuggestedParentID, entry.Confidence, entry.NameScore, entry.BrandScore, entry.PotencyScore, entry.Status,
		entry.ResolvedParentID, entry.ResolvedVariantID, entry.ResolvedBy, entry.CreatedAt, entry.UpdatedAt, entry.ResolvedAt)

	query, args := ib.Build()
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entry_id": entry.ID}).Error("Failed to create review queue entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create review queue entry")
	}

	return entry, nil
}

// Get retrieves an entry by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.ReviewQueueEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.Get")
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(columns...)
	sb.From("review_queue")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var entry models.ReviewQueueEntry
	if err := r.db.Executor(ctx).GetContext(ctx, &entry, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("review queue entry %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get review queue entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review queue entry")
	}

	return &entry, nil
}

// FindPending returns the pending entry for the same listing and suggestion, or nil.
func (r *Repository) FindPending(ctx context.Context, source, originalName, weightLabel, suggestedParentID string) (*models.ReviewQueueEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.FindPending")
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(columns...)
	sb.From("review_queue")
	sb.Where(
		sb.Equal("source", source),
		sb.Equal("original_name", originalName),
		sb.Equal("weight_label", weightLabel),
		sb.Equal("suggested_parent_id", suggestedParentID),
		sb.Equal("status", models.ReviewStatusPending),
	)
	sb.OrderBy("created_at", "id")
	sb.Limit(1)

	query, args := sb.Build()
	var entries []models.ReviewQueueEntry
	if err := r.db.Executor(ctx).SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find pending review queue entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find pending review queue entry")
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Refresh updates the price and scores of a pending entry seen again in a later scrape.
func (r *Repository) Refresh(ctx context.Context, id string, price decimal.Decimal, score models.MatchScore) error {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.Refresh")
	defer span.End()

	ub := r.db.Flavor().NewUpdateBuilder()
	ub.Update("review_queue")
	ub.Set(
		ub.Assign("price", price),
		ub.Assign("confidence", score.Total),
		ub.Assign("name_score", score.Name),
		ub.Assign("brand_score", score.Brand),
		ub.Assign("potency_score", score.Potency),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id), ub.Equal("status", models.ReviewStatusPending))

	query, args := ub.Build()
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entry_id": id}).Error("Failed to refresh review queue entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to refresh review queue entry")
	}
	return nil
}

// ListPending returns pending entries oldest first
func (r *Repository) ListPending(ctx context.Context, limit, offset int) ([]models.ReviewQueueEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.ListPending")
	defer span.End()

	limit, offset = Page(limit, offset)

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(columns...)
	sb.From("review_queue")
	sb.Where(sb.Equal("status", models.ReviewStatusPending))
	sb.OrderBy("created_at", "id")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	entries := []models.ReviewQueueEntry{}
	if err := r.db.Executor(ctx).SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list pending review queue entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list pending review queue entries")
	}

	return entries, nil
}

// CountPending returns the number of entries awaiting review
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.CountPending")
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("review_queue")
	sb.Where(sb.Equal("status", models.ReviewStatusPending))

	query, args := sb.Build()
	var count int
	if err := r.db.Executor(ctx).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count pending review queue entries")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count pending review queue entries")
	}
	return count, nil
}

// MarkResolved moves a pending entry to a terminal status. It returns 404
// for unknown entries and 409 when the entry already left pending.
func (r *Repository) MarkResolved(ctx context.Context, id string, status models.ReviewStatus, parentID, variantID string, resolvedBy *string) error {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.MarkResolved")
	defer span.End()

	if !status.IsTerminal() {
		return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is not a terminal status", status))
	}

	now := time.Now().UTC()
	ub := r.db.Flavor().NewUpdateBuilder()
	ub.Update("review_queue")
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("resolved_parent_id", parentID),
		ub.Assign("resolved_variant_id", variantID),
		ub.Assign("resolved_by", resolvedBy),
		ub.Assign("resolved_at", now),
		ub.Assign("updated_at", now),
	)
	ub.Where(ub.Equal("id", id), ub.Equal("status", models.ReviewStatusPending))

	query, args := ub.Build()
	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entry_id": id}).Error("Failed to resolve review queue entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve review queue entry")
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		entry, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("review queue entry %s is already %s", id, entry.Status))
	}

	return nil
}

// Page clamps list paging to sane bounds
func Page(limit, offset int) (int, int) {
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
