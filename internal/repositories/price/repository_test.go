package price_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/internal/dbtest"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/price"
)

func TestRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := price.NewRepository(dbtest.New(t), dbtest.Logger())

	first, err := repo.Upsert(ctx, "variant-1", "dispensary-a", decimal.RequireFromString("35.00"), time.Time{})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("35").Equal(first.Amount), "got %s", first.Amount)
	assert.False(t, first.ObservedAt.IsZero())

	second, err := repo.Upsert(ctx, "variant-1", "dispensary-a", decimal.RequireFromString("32.50"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "one price per variant and source")
	assert.True(t, decimal.RequireFromString("32.5").Equal(second.Amount), "got %s", second.Amount)

	_, err = repo.Upsert(ctx, "variant-1", "dispensary-b", decimal.RequireFromString("30"), time.Now())
	require.NoError(t, err)

	prices, err := repo.ListByVariant(ctx, "variant-1")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "dispensary-b", prices[0].Source)
	assert.Equal(t, "dispensary-a", prices[1].Source)
}

func TestRepository_GetMissing(t *testing.T) {
	repo := price.NewRepository(dbtest.New(t), dbtest.Logger())

	_, err := repo.Get(context.Background(), "variant-1", "nowhere")
	dbtest.AssertStatus(t, err, http.StatusNotFound)
}
