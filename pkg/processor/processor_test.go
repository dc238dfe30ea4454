package processor_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/internal/dbtest"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/brand"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/price"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/product"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/reviewqueue"
	"github.com/PKayu/cannabis-compare-sub000/pkg/events"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/processor"
	"github.com/PKayu/cannabis-compare-sub000/pkg/resolver"
)

type recordingPublisher struct {
	events []*events.CatalogEvent
}

func (p *recordingPublisher) PublishEvents(_ context.Context, evts []*events.CatalogEvent) error {
	p.events = append(p.events, evts...)
	return nil
}

type fixture struct {
	processor *processor.Processor
	products  *product.Repository
	prices    *price.Repository
	published *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	logger := dbtest.Logger()

	products := product.NewRepository(db, logger)
	prices := price.NewRepository(db, logger)
	entityResolver := resolver.NewEntityResolver(db, products, brand.NewRepository(db, logger),
		reviewqueue.NewRepository(db, logger), resolver.DefaultConfig(), logger)
	published := &recordingPublisher{}

	return &fixture{
		processor: processor.NewProcessor(entityResolver, prices, events.NewEmitter(published, logger), logger),
		products:  products,
		prices:    prices,
		published: published,
	}
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProcessor_Process(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scrapedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	report, err := f.processor.Process(ctx, &models.ListingBatch{
		Source:    "dispensary-a",
		ScrapedAt: scrapedAt,
		Listings: []models.Listing{
			{Name: "Blue Dream 3.5g", Brand: "Tryke", Category: "Flower", Price: amount("35")},
			{Name: "Refer a friend, get $20 off!"},
			{Name: "Blue Dream 7g", Brand: "Tryke", Category: "Flower", Price: amount("60")},
			{Name: "  ", Price: amount("10")},
			{Name: "Free pre-roll", Price: amount("0")},
			{Name: "Blue Dream 3.5g", Brand: "Wyld", Category: "Flower", Price: amount("30")},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, "dispensary-a", report.Source)
	assert.Equal(t, 6, report.Received)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, 1, report.NewParents)
	assert.Equal(t, 1, report.AutoMerged)
	assert.Equal(t, 1, report.Flagged)
	assert.Equal(t, 0, report.Failed)

	require.Len(t, report.Outcomes, 6)
	for i, outcome := range report.Outcomes {
		assert.Equal(t, i, outcome.Index)
	}
	assert.True(t, report.Outcomes[1].Skipped)
	assert.Contains(t, report.Outcomes[1].Error, "price")
	assert.True(t, report.Outcomes[3].Skipped)
	assert.True(t, report.Outcomes[4].Skipped)

	merged := report.Outcomes[2].Resolution
	require.NotNil(t, merged)
	assert.Equal(t, models.DecisionAutoMerge, merged.Decision)

	p, err := f.prices.Get(ctx, merged.VariantID, "dispensary-a")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("60").Equal(p.Amount))
	assert.True(t, scrapedAt.Equal(p.ObservedAt), "observed at %s", p.ObservedAt)

	require.Len(t, f.published.events, 3)
	assert.Equal(t, events.TypeListingResolved, f.published.events[0].Type)
	assert.Equal(t, "new_parent", f.published.events[0].Decision)
	assert.Equal(t, events.TypeListingFlagged, f.published.events[2].Type)
	assert.NotEmpty(t, f.published.events[2].ReviewEntryID)
	assert.Empty(t, f.published.events[2].VariantID)
}

func TestProcessor_RejectsSubCentPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.processor.Process(ctx, &models.ListingBatch{
		Source: "dispensary-a",
		Listings: []models.Listing{
			{Name: "Blue Dream 3.5g", Brand: "Tryke", Price: amount("34.995")},
			{Name: "Gelato 1g", Brand: "Tryke", Price: amount("12.50")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.True(t, report.Outcomes[0].Skipped)
	assert.Contains(t, report.Outcomes[0].Error, "cent")

	kept := report.Outcomes[1].Resolution
	require.NotNil(t, kept)
	p, err := f.prices.Get(ctx, kept.VariantID, "dispensary-a")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(p.Amount))
}

func TestProcessor_FlaggedListingHasNoPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.processor.Process(ctx, &models.ListingBatch{
		Source: "dispensary-a",
		Listings: []models.Listing{
			{Name: "Blue Dream 3.5g", Brand: "Tryke", Price: amount("35")},
			{Name: "Blue Dream 3.5g", Brand: "Wyld", Price: amount("30")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Flagged)

	parentID := report.Outcomes[0].Resolution.ParentID
	variants, err := f.products.ListVariants(ctx, parentID)
	require.NoError(t, err)
	require.Len(t, variants, 1)

	prices, err := f.prices.ListByVariant(ctx, variants[0].ID)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.True(t, decimal.RequireFromString("35").Equal(prices[0].Amount))
}

func TestProcessor_RejectsBatchWithoutSource(t *testing.T) {
	f := newFixture(t)

	_, err := f.processor.Process(context.Background(), &models.ListingBatch{Source: "  "})
	dbtest.AssertStatus(t, err, http.StatusBadRequest)

	_, err = f.processor.Process(context.Background(), nil)
	dbtest.AssertStatus(t, err, http.StatusBadRequest)
}

func TestProcessor_EmptyBatch(t *testing.T) {
	f := newFixture(t)

	report, err := f.processor.Process(context.Background(), &models.ListingBatch{ID: "run-1", Source: "dispensary-a"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.BatchID)
	assert.Equal(t, 0, report.Received)
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, f.published.events)
}
