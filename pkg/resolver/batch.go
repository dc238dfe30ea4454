package resolver

import (
	"context"
	"fmt"

	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

// ListingResult is the outcome of one listing in a batch. Exactly one of
// Resolution and Err is set.
type ListingResult struct {
	Index      int
	Listing    *NormalizedListing
	Raw        models.Listing
	Resolution *models.Resolution
	Err        error
}

// ResolveBatch resolves listings in order inside one transaction. Each
// listing runs in its own savepoint so a failure only discards that
// listing's writes; everything else commits together at the end. When ctx
// already carries a transaction the caller owns the commit.
func (r *EntityResolver) ResolveBatch(ctx context.Context, source string, listings []models.Listing, hook VariantHook) ([]ListingResult, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.EntityResolver.ResolveBatch")
	defer span.End()

	tracing.Annotate(ctx, "listing.source", source)

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, tracing.Fail(span, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cache, err := LoadCandidateCache(ctx, r.products)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("source", source).Error("Failed to load candidate cache")
		return nil, tracing.Fail(span, fmt.Errorf("%w: %w", models.ErrCandidateLoad, err))
	}

	results := make([]ListingResult, 0, len(listings))
	for i, listing := range listings {
		result, err := r.resolveIsolated(ctx, tx, cache, i, source, listing, hook)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, tracing.Fail(span, err)
	}

	return results, nil
}

// resolveIsolated only returns an error when the transaction itself is no
// longer usable.
func (r *EntityResolver) resolveIsolated(ctx context.Context, tx database.Tx, cache *CandidateCache, index int, source string, listing models.Listing, hook VariantHook) (ListingResult, error) {
	result := ListingResult{Index: index, Raw: listing}
	savepoint := fmt.Sprintf("listing_%d", index)
	mark := cache.Mark()

	if err := tx.Savepoint(ctx, savepoint); err != nil {
		return result, err
	}

	result.Listing, result.Resolution, result.Err = r.resolveGuarded(ctx, cache, source, listing, hook)
	if result.Err == nil {
		return result, tx.ReleaseSavepoint(ctx, savepoint)
	}

	r.logger.WithContext(ctx).WithError(result.Err).WithFields(map[string]any{
		"source":        source,
		"raw_name":      listing.Name,
		"listing_index": index,
	}).Error("Failed to resolve listing")

	cache.Truncate(mark)
	if err := tx.RollbackToSavepoint(ctx, savepoint); err != nil {
		return result, err
	}
	return result, tx.ReleaseSavepoint(ctx, savepoint)
}

func (r *EntityResolver) resolveGuarded(ctx context.Context, cache *CandidateCache, source string, listing models.Listing, hook VariantHook) (normalized *NormalizedListing, resolution *models.Resolution, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			resolution = nil
			err = fmt.Errorf("panic while resolving listing: %v", recovered)
		}
	}()

	normalized, err = r.Normalize(ctx, source, listing)
	if err != nil {
		return nil, nil, err
	}

	resolution, err = r.Resolve(ctx, cache, normalized, hook)
	return normalized, resolution, err
}
