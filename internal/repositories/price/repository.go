package price

import (
	"context"
	"database/sql"
	"errors"
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

// Repository keeps one current price per (variant, source).
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert records the price a source asks for a variant, replacing the previous observation.
func (r *Repository) Upsert(ctx context.Context, variantID, source string, amount decimal.Decimal, observedAt time.Time) (*models.Price, error) {
	ctx, span := tracing.StartSpan(ctx, "price.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	if observedAt.IsZero() {
		observedAt = now
	}

	ib := r.db.Flavor().NewInsertBuilder()
	ib.InsertInto("prices")
	ib.Cols("id", "variant_id", "source", "amount", "observed_at", "created_at", "updated_at")
	ib.Values(uuid.New().String(), variantID, source, amount.StringFixed(2), observedAt.UTC(), now, now)

	query, args := ib.Build()
	query += database.OnConflictUpdate([]string{"variant_id", "source"}, "amount", "observed_at", "updated_at")

	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"variant_id": variantID,
			"source":     source,
		}).Error("Failed to upsert price")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record price")
	}

	return r.Get(ctx, variantID, source)
}

// Get returns the current price of a variant at a source.
func (r *Repository) Get(ctx context.Context, variantID, source string) (*models.Price, error) {
	ctx, span := tracing.StartSpan(ctx, "price.Repository.Get")
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select("id", "variant_id", "source", "amount", "observed_at", "created_at", "updated_at")
	sb.From("prices")
	sb.Where(sb.Equal("variant_id", variantID), sb.Equal("source", source))

	query, args := sb.Build()
	var price models.Price
	if err := r.db.Executor(ctx).GetContext(ctx, &price, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "price not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get price")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get price")
	}

	return &price, nil
}

// ListByVariant returns every source's price for a variant, cheapest first.
func (r *Repository) ListByVariant(ctx context.Context, variantID string) ([]models.Price, error) {
	ctx, span := tracing.StartSpan(ctx, "price.Repository.ListByVariant")
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select("id", "variant_id", "source", "amount", "observed_at", "created_at", "updated_at")
	sb.From("prices")
	sb.Where(sb.Equal("variant_id", variantID))
	sb.OrderBy("amount", "source")

	query, args := sb.Build()
	var prices []models.Price
	if err := r.db.Executor(ctx).SelectContext(ctx, &prices, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list prices")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list prices")
	}

	return prices, nil
}
