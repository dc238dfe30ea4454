package brand

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/normalizers"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

// Repository handles brand persistence. Brands are keyed by a slug of
// their normalized name so "Raw Garden" and "Raw Garden, LLC" share a row.
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

// Key returns the unique slug for a brand name.
func Key(name string) string {
	return slug.Make(normalizers.Brand(name))
}

// GetOrCreate returns the brand whose key matches name, creating it on first sight.
func (r *Repository) GetOrCreate(ctx context.Context, name string) (*models.Brand, error) {
	ctx, span := tracing.StartSpan(ctx, "brand.Repository.GetOrCreate")
	defer span.End()

	name = strings.TrimSpace(name)
	key := Key(name)
	if key == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("brand %q has no usable characters", name))
	}

	existing, err := r.GetBySlug(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	brand := &models.Brand{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      key,
		CreatedAt: time.Now().UTC(),
	}

	ib := r.db.Flavor().NewInsertBuilder()
	ib.InsertInto("brands")
	ib.Cols("id", "name", "slug", "created_at")
	ib.Values(brand.ID, brand.Name, brand.Slug, brand.CreatedAt)

	query, args := ib.Build()
	query += database.OnConflictDoNothing("slug")
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"slug": key}).Error("Failed to create brand")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create brand")
	}

	// a concurrent writer may have won the insert
	created, err := r.GetBySlug(ctx, key)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "brand disappeared after insert")
	}
	return created, nil
}

// GetBySlug returns nil when no brand has the slug.
func (r *Repository) GetBySlug(ctx context.Context, key string) (*models.Brand, error) {
	ctx, span := tracing.StartSpan(ctx, "brand.Repository.GetBySlug")
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select("id", "name", "slug", "created_at")
	sb.From("brands")
	sb.Where(sb.Equal("slug", key))

	query, args := sb.Build()
	var brand models.Brand
	if err := r.db.Executor(ctx).GetContext(ctx, &brand, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get brand")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get brand")
	}

	return &brand, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Brand, error) {
	ctx, span := tracing.StartSpan(ctx, "brand.Repository.Get")
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select("id", "name", "slug", "created_at")
	sb.From("brands")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var brand models.Brand
	if err := r.db.Executor(ctx).GetContext(ctx, &brand, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("brand %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get brand")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get brand")
	}

	return &brand, nil
}
