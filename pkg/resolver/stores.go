package resolver

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

// ProductStore is the product persistence the resolver needs.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	ListParents(ctx context.Context) ([]models.Product, error)
	FindVariant(ctx context.Context, parentID string, weight models.Weight, tolerance float64) (*models.Product, error)
}

type BrandStore interface {
	GetOrCreate(ctx context.Context, name string) (*models.Brand, error)
}

type ReviewStore interface {
	Create(ctx context.Context, entry *models.ReviewQueueEntry) (*models.ReviewQueueEntry, error)
	FindPending(ctx context.Context, source, originalName, weightLabel, suggestedParentID string) (*models.ReviewQueueEntry, error)
	Refresh(ctx context.Context, id string, price decimal.Decimal, score models.MatchScore) error
}
