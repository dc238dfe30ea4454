package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

var selectColumns = []string{
	"p.id", "p.parent_id", "p.is_master", "p.name", "p.brand_id", "b.name AS brand_name", "p.category",
	"p.weight_label", "p.weight_grams", "p.thc_value", "p.thc_unit", "p.cbd_value", "p.cbd_unit",
	"p.created_at", "p.updated_at",
}

// Repository persists parents and variants, which share the products table.
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

// Create inserts a parent or variant. BrandName is not stored on the row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.Create")
	defer span.End()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.CreatedAt = time.Now().UTC()
	product.UpdatedAt = product.CreatedAt

	ib := r.db.Flavor().NewInsertBuilder()
	ib.InsertInto("products")
	ib.Cols("id", "parent_id", "is_master", "name", "brand_id", "category", "weight_label", "weight_grams",
		"thc_value", "thc_unit", "cbd_value", "cbd_unit", "created_at", "updated_at")
	ib.Values(product.ID, product.ParentID, product.IsMaster, product.Name, product.BrandID, product.Category,
		product.WeightLabel, product.WeightGrams, product.THCValue, product.THCUnit, product.CBDValue, product.CBDUnit,
		product.CreatedAt, product.UpdatedAt)

	query, args := ib.Build()
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"product_id": product.ID,
			"is_master":  product.IsMaster,
		}).Error("Failed to create product")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create product")
	}

	return product, nil
}

// Get retrieves a parent or variant by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.Get")
	defer span.End()

	sb := r.selectBuilder()
	sb.Where(sb.Equal("p.id", id))

	query, args := sb.Build()
	var product models.Product
	if err := r.db.Executor(ctx).GetContext(ctx, &product, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("product %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get product")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get product")
	}

	return &product, nil
}

// ListParents returns every parent product, oldest first.
func (r *Repository) ListParents(ctx context.Context) ([]models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.ListParents")
	defer span.End()

	sb := r.selectBuilder()
	sb.Where(sb.Equal("p.is_master", true))
	sb.OrderBy("p.created_at", "p.id")

	query, args := sb.Build()
	var parents []models.Product
	if err := r.db.Executor(ctx).SelectContext(ctx, &parents, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list parent products")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list parent products")
	}

	return parents, nil
}

// ListVariants returns the variants of a parent ordered by weight.
func (r *Repository) ListVariants(ctx context.Context, parentID string) ([]models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.ListVariants")
	defer span.End()

	sb := r.selectBuilder()
	sb.Where(sb.Equal("p.parent_id", parentID))
	sb.OrderBy("p.weight_grams", "p.id")

	query, args := sb.Build()
	var variants []models.Product
	if err := r.db.Executor(ctx).SelectContext(ctx, &variants, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list variants")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list variants")
	}

	return variants, nil
}

// FindVariant returns the variant of parentID with the given weight, or nil.
// Specified weights match within tolerance grams, closest first; the
// unspecified weight only matches variants without grams.
func (r *Repository) FindVariant(ctx context.Context, parentID string, weight models.Weight, tolerance float64) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.FindVariant")
	defer span.End()

	sb := r.selectBuilder()
	if weight.Grams == nil {
		sb.Where(sb.Equal("p.parent_id", parentID), sb.IsNull("p.weight_grams"))
	} else {
		grams := *weight.Grams
		sb.Where(
			sb.Equal("p.parent_id", parentID),
			sb.IsNotNull("p.weight_grams"),
			sb.Between("p.weight_grams", grams-tolerance, grams+tolerance),
		)
	}
	sb.OrderBy("p.created_at", "p.id")

	query, args := sb.Build()
	var variants []models.Product
	if err := r.db.Executor(ctx).SelectContext(ctx, &variants, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find variant")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find variant")
	}

	if len(variants) == 0 {
		return nil, nil
	}
	if weight.Grams == nil {
		return &variants[0], nil
	}

	best := 0
	for i := range variants {
		if math.Abs(*variants[i].WeightGrams-*weight.Grams) < math.Abs(*variants[best].WeightGrams-*weight.Grams) {
			best = i
		}
	}
	return &variants[best], nil
}

func (r *Repository) selectBuilder() *sqlbuilder.SelectBuilder {
	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(selectColumns...)
	sb.From("products p")
	sb.Join("brands b", "b.id = p.brand_id")
	return sb
}
