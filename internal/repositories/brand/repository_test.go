package brand_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/internal/dbtest"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/brand"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "tryke", brand.Key("Tryke"))
	assert.Equal(t, "tryke", brand.Key("  TRYKE, LLC "))
	assert.Equal(t, "wyld", brand.Key("Wyld™"))
	assert.Equal(t, "unknown", brand.Key("Unknown"))
	assert.Equal(t, "", brand.Key("®"))
}

func TestRepository_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := brand.NewRepository(dbtest.New(t), dbtest.Logger())

	first, err := repo.GetOrCreate(ctx, "Tryke")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Tryke", first.Name)
	assert.Equal(t, "tryke", first.Slug)

	again, err := repo.GetOrCreate(ctx, "TRYKE Inc.")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Tryke", again.Name, "first spelling wins")

	other, err := repo.GetOrCreate(ctx, "Wyld")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Slug, got.Slug)
}

func TestRepository_GetOrCreateRejectsEmptyKey(t *testing.T) {
	repo := brand.NewRepository(dbtest.New(t), dbtest.Logger())

	_, err := repo.GetOrCreate(context.Background(), "  ™ ")
	dbtest.AssertStatus(t, err, http.StatusBadRequest)
}

func TestRepository_Missing(t *testing.T) {
	ctx := context.Background()
	repo := brand.NewRepository(dbtest.New(t), dbtest.Logger())

	missing, err := repo.GetBySlug(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.Get(ctx, "does-not-exist")
	dbtest.AssertStatus(t, err, http.StatusNotFound)
}
