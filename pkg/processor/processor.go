// Package processor runs scraped listing batches through validation, the
// resolver and price attachment.
package processor

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/PKayu/cannabis-compare-sub000/pkg/appctx"
	"github.com/PKayu/cannabis-compare-sub000/pkg/events"
	"github.com/PKayu/cannabis-compare-sub000/pkg/metrics"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/resolver"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

type PriceStore interface {
	Upsert(ctx context.Context, variantID, source string, amount decimal.Decimal, observedAt time.Time) (*models.Price, error)
}

// Processor is the ingestion orchestrator. Records without a name or a
// positive price are skipped before they reach the resolver.
type Processor struct {
	resolver *resolver.EntityResolver
	prices   PriceStore
	emitter  *events.Emitter
	validate *validator.Validate
	logger   ectologger.Logger
}

func NewProcessor(entityResolver *resolver.EntityResolver, prices PriceStore, emitter *events.Emitter, logger ectologger.Logger) *Processor {
	return &Processor{
		resolver: entityResolver,
		prices:   prices,
		emitter:  emitter,
		validate: newValidator(),
		logger:   logger,
	}
}

// Process resolves one batch and commits it. Per-listing problems are
// reported in the BatchReport; an error means nothing was committed.
func (p *Processor) Process(ctx context.Context, batch *models.ListingBatch) (*models.BatchReport, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.Process")
	defer span.End()

	start := time.Now()

	if batch == nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "listing batch is required")
	}
	batch.Source = strings.TrimSpace(batch.Source)
	if err := p.validate.Struct(batch); err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, validationMessage(err))
	}
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	observedAt := batch.ScrapedAt
	if observedAt.IsZero() {
		observedAt = start.UTC()
	}

	ctx = appctx.SetSource(ctx, batch.Source)
	ctx = appctx.SetBatchID(ctx, batch.ID)
	logger := p.logger.WithContext(ctx).WithFields(map[string]any{
		"source":   batch.Source,
		"batch_id": batch.ID,
	})

	report := &models.BatchReport{
		BatchID:  batch.ID,
		Source:   batch.Source,
		Received: len(batch.Listings),
		Outcomes: make([]models.ListingOutcome, 0, len(batch.Listings)),
	}

	accepted := make([]models.Listing, 0, len(batch.Listings))
	positions := make([]int, 0, len(batch.Listings))
	for i, listing := range batch.Listings {
		listing.Name = strings.TrimSpace(listing.Name)
		if err := p.validate.Struct(listing); err != nil {
			reason := validationMessage(err)
			logger.WithFields(map[string]any{
				"listing_index": i,
				"raw_name":      listing.Name,
				"reason":        reason,
			}).Warn("Skipping record that is not a product listing")
			metrics.RecordDropped("invalid")
			report.Record(models.ListingOutcome{Index: i, Name: listing.Name, Skipped: true, Error: reason})
			continue
		}
		accepted = append(accepted, listing)
		positions = append(positions, i)
	}

	attachPrice := func(ctx context.Context, listing *resolver.NormalizedListing, variant *models.Product) error {
		_, err := p.prices.Upsert(ctx, variant.ID, listing.Source, listing.Price, observedAt)
		return err
	}

	results, err := p.resolver.ResolveBatch(ctx, batch.Source, accepted, attachPrice)
	if err != nil {
		metrics.RecordBatch("error", time.Since(start).Seconds())
		logger.WithError(err).Error("Listing batch failed")
		return nil, err
	}

	var emitted []*events.CatalogEvent
	for _, result := range results {
		outcome := models.ListingOutcome{Index: positions[result.Index], Name: result.Raw.Name}
		if result.Err != nil {
			outcome.Error = result.Err.Error()
			metrics.RecordDropped("failed")
		} else {
			outcome.Resolution = result.Resolution
			metrics.RecordListing(result.Resolution.Decision.String())
			emitted = append(emitted, listingEvent(batch, result))
		}
		report.Record(outcome)
	}
	slices.SortFunc(report.Outcomes, func(a, b models.ListingOutcome) int {
		return a.Index - b.Index
	})

	report.DurationMS = time.Since(start).Milliseconds()
	metrics.RecordBatch("success", time.Since(start).Seconds())

	p.emitter.Emit(ctx, emitted...)

	logger.WithFields(map[string]any{
		"received":    report.Received,
		"skipped":     report.Skipped,
		"auto_merged": report.AutoMerged,
		"flagged":     report.Flagged,
		"new_parents": report.NewParents,
		"failed":      report.Failed,
		"duration_ms": report.DurationMS,
	}).Infof("Processed listing batch of %d records", report.Received)

	return report, nil
}

func listingEvent(batch *models.ListingBatch, result resolver.ListingResult) *events.CatalogEvent {
	res := result.Resolution
	evt := &events.CatalogEvent{
		Type:        events.TypeListingResolved,
		Source:      batch.Source,
		BatchID:     batch.ID,
		Decision:    res.Decision.String(),
		RawName:     result.Raw.Name,
		WeightLabel: res.Weight.Label,
		Price:       result.Raw.Price,
	}
	if res.Score != nil {
		total := res.Score.Total
		evt.Confidence = &total
	}

	if res.Decision == models.DecisionFlag {
		evt.Type = events.TypeListingFlagged
		evt.ReviewEntryID = res.ReviewEntryID
		return evt
	}

	evt.ParentID = res.ParentID
	evt.VariantID = res.VariantID
	evt.VariantIsNew = res.VariantIsNew
	return evt
}
