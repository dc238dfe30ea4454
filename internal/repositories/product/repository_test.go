package product_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/internal/dbtest"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/brand"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/product"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

func grams(v float64) *float64 {
	return &v
}

func label(s string) *string {
	return &s
}

func setup(t *testing.T) (*product.Repository, *models.Product) {
	t.Helper()
	ctx := context.Background()
	db := dbtest.New(t)

	b, err := brand.NewRepository(db, dbtest.Logger()).GetOrCreate(ctx, "Tryke")
	require.NoError(t, err)

	repo := product.NewRepository(db, dbtest.Logger())
	parent := &models.Product{IsMaster: true, Name: "Blue Dream", BrandID: b.ID, Category: "flower"}
	parent.SetTHC(&models.Potency{Value: 22, Unit: models.PotencyPercent})
	parent, err = repo.Create(ctx, parent)
	require.NoError(t, err)

	return repo, parent
}

func variant(parent *models.Product, w models.Weight) *models.Product {
	v := &models.Product{
		ParentID:    &parent.ID,
		Name:        parent.Name,
		BrandID:     parent.BrandID,
		Category:    parent.Category,
		WeightLabel: label(w.Label),
		WeightGrams: w.Grams,
	}
	return v
}

func TestRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo, parent := setup(t)

	got, err := repo.Get(ctx, parent.ID)
	require.NoError(t, err)
	assert.True(t, got.IsMaster)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, "Blue Dream", got.Name)
	assert.Equal(t, "Tryke", got.BrandName)
	require.NotNil(t, got.THC())
	assert.Equal(t, models.Potency{Value: 22, Unit: models.PotencyPercent}, *got.THC())
	assert.Nil(t, got.CBD())
	assert.Equal(t, models.UnspecifiedWeightLabel, got.Weight().Label)

	_, err = repo.Get(ctx, "missing")
	dbtest.AssertStatus(t, err, http.StatusNotFound)
}

func TestRepository_ListParentsAndVariants(t *testing.T) {
	ctx := context.Background()
	repo, parent := setup(t)

	_, err := repo.Create(ctx, variant(parent, models.Weight{Label: "7g", Grams: grams(7)}))
	require.NoError(t, err)
	_, err = repo.Create(ctx, variant(parent, models.Weight{Label: "3.5g", Grams: grams(3.5)}))
	require.NoError(t, err)

	parents, err := repo.ListParents(ctx)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, parent.ID, parents[0].ID)

	variants, err := repo.ListVariants(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "3.5g", variants[0].Weight().Label)
	assert.Equal(t, "7g", variants[1].Weight().Label)
	assert.Equal(t, parent.ID, *variants[0].ParentID)
	assert.False(t, variants[0].IsMaster)
}

func TestRepository_FindVariant(t *testing.T) {
	ctx := context.Background()
	repo, parent := setup(t)

	eighth, err := repo.Create(ctx, variant(parent, models.Weight{Label: "3.5g", Grams: grams(3.5)}))
	require.NoError(t, err)
	unspecified, err := repo.Create(ctx, variant(parent, models.Unspecified()))
	require.NoError(t, err)

	t.Run("within tolerance", func(t *testing.T) {
		found, err := repo.FindVariant(ctx, parent.ID, models.Weight{Label: "3.5g", Grams: grams(3.505)}, 0.01)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, eighth.ID, found.ID)
	})

	t.Run("outside tolerance", func(t *testing.T) {
		found, err := repo.FindVariant(ctx, parent.ID, models.Weight{Label: "3.6g", Grams: grams(3.6)}, 0.01)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("unspecified is its own key", func(t *testing.T) {
		found, err := repo.FindVariant(ctx, parent.ID, models.Unspecified(), 0.01)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, unspecified.ID, found.ID)
		assert.Nil(t, found.WeightGrams)
	})

	t.Run("other parent", func(t *testing.T) {
		found, err := repo.FindVariant(ctx, "someone-else", models.Weight{Label: "3.5g", Grams: grams(3.5)}, 0.01)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
