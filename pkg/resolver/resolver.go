// Package resolver decides, listing by listing, whether scraped products are
// known parents, new sizes of known parents, or new parents.
package resolver

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

	brandrepo "github.com/PKayu/cannabis-compare-sub000/internal/repositories/brand"
	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
	"github.com/PKayu/cannabis-compare-sub000/pkg/matching"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/normalizers"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
	"github.com/PKayu/cannabis-compare-sub000/pkg/weight"
)

const (
	DefaultUnknownBrand = "Unknown"
	DefaultCategory     = "other"
)

type Config struct {
	Similarity      matching.Config
	GramTolerance   float64
	UnknownBrand    string
	DefaultCategory string
}

func DefaultConfig() Config {
	return Config{
		Similarity:      matching.DefaultConfig(),
		GramTolerance:   DefaultGramTolerance,
		UnknownBrand:    DefaultUnknownBrand,
		DefaultCategory: DefaultCategory,
	}
}

// NormalizedListing is a listing prepared for scoring. Name is the listing
// name with its weight removed; Features holds the normalized projection.
type NormalizedListing struct {
	Source   string
	Original models.Listing
	Name     string
	Brand    string
	Category string
	Weight   models.Weight
	THC      *models.Potency
	CBD      *models.Potency
	Price    decimal.Decimal
	Features matching.Features
}

// VariantHook runs after a listing resolved to a variant, inside the
// listing's savepoint. Returning an error drops the listing.
type VariantHook func(ctx context.Context, listing *NormalizedListing, variant *models.Product) error

// EntityResolver applies the auto-merge / flag / new-parent policy.
type EntityResolver struct {
	db       database.DB
	products ProductStore
	brands   BrandStore
	reviews  ReviewStore
	variants *VariantResolver
	scorer   *matching.SimilarityScorer
	config   Config
	logger   ectologger.Logger
}

func NewEntityResolver(db database.DB, products ProductStore, brands BrandStore, reviews ReviewStore, config Config, logger ectologger.Logger) *EntityResolver {
	if config.UnknownBrand == "" {
		config.UnknownBrand = DefaultUnknownBrand
	}
	if config.DefaultCategory == "" {
		config.DefaultCategory = DefaultCategory
	}
	return &EntityResolver{
		db:       db,
		products: products,
		brands:   brands,
		reviews:  reviews,
		variants: NewVariantResolver(products, config.GramTolerance, logger),
		scorer:   matching.NewSimilarityScorer(config.Similarity),
		config:   config,
		logger:   logger,
	}
}

func (r *EntityResolver) Variants() *VariantResolver {
	return r.variants
}

func (r *EntityResolver) Config() Config {
	return r.config
}

// Normalize cleans a listing for scoring. Implausible potency values are
// dropped with a warning. A name that is nothing but a weight is an error.
func (r *EntityResolver) Normalize(ctx context.Context, source string, listing models.Listing) (*NormalizedListing, error) {
	name := weight.CleanName(listing.Name)
	if normalizers.ProductName(name) == "" {
		return nil, models.ErrEmptyName
	}

	// a brand with no letters or digits ("™", "-") counts as missing
	brand := strings.TrimSpace(listing.Brand)
	if normalizers.Brand(brand) == "" || brandrepo.Key(brand) == "" {
		brand = r.config.UnknownBrand
	}

	category := strings.ToLower(strings.TrimSpace(listing.Category))
	if category == "" {
		category = r.config.DefaultCategory
	}

	thc := r.sanitizePotency(ctx, source, listing, "thc", listing.THC)
	cbd := r.sanitizePotency(ctx, source, listing, "cbd", listing.CBD)

	normalized := &NormalizedListing{
		Source:   source,
		Original: listing,
		Name:     name,
		Brand:    brand,
		Category: category,
		Weight:   weight.FromListing(listing.Weight, listing.Name),
		THC:      thc,
		CBD:      cbd,
		Features: matching.Features{
			Name:  normalizers.ProductName(name),
			Brand: normalizers.Brand(brand),
			THC:   thc,
			CBD:   cbd,
		},
	}
	if listing.Price != nil {
		normalized.Price = *listing.Price
	}
	return normalized, nil
}

func (r *EntityResolver) sanitizePotency(ctx context.Context, source string, listing models.Listing, field string, potency *models.Potency) *models.Potency {
	if potency == nil {
		return nil
	}
	clean := potency.Sanitized()
	if clean == nil {
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"source":   source,
			"raw_name": listing.Name,
			"field":    field,
			"value":    potency.Value,
			"unit":     potency.Unit,
		}).Warn("Discarding implausible potency value")
	}
	return clean
}

// Resolve decides one listing against cache. Auto-merged and new-parent
// listings get a variant and run hook; flagged listings only get a review
// entry. New parents are appended to cache.
func (r *EntityResolver) Resolve(ctx context.Context, cache *CandidateCache, listing *NormalizedListing, hook VariantHook) (*models.Resolution, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.EntityResolver.Resolve")
	defer span.End()

	best, score, found := r.scorer.Best(listing.Features, cache.Candidates())

	decision := models.DecisionNewParent
	if found {
		decision = r.scorer.Decide(score.Total)
	}

	resolution := &models.Resolution{Decision: decision, Weight: listing.Weight}
	if found {
		resolution.Score = &score
	}

	switch decision {
	case models.DecisionAutoMerge:
		parent, ok := cache.Parent(best.ID)
		if !ok {
			return nil, models.ErrParentNotFound
		}
		variant, created, err := r.variants.Resolve(ctx, parent, listing.Weight, listing.THC, listing.CBD)
		if err != nil {
			return nil, err
		}
		resolution.ParentID = parent.ID
		resolution.VariantID = variant.ID
		resolution.VariantIsNew = created
		if err := runHook(ctx, hook, listing, variant); err != nil {
			return nil, err
		}

	case models.DecisionFlag:
		entry, err := r.flag(ctx, listing, best, score)
		if err != nil {
			return nil, err
		}
		resolution.ReviewEntryID = entry.ID

	case models.DecisionNewParent:
		parent, err := r.CreateParent(ctx, listing.Name, listing.Brand, listing.Category, listing.THC, listing.CBD)
		if err != nil {
			return nil, err
		}
		cache.Append(parent)

		variant, created, err := r.variants.Resolve(ctx, parent, listing.Weight, listing.THC, listing.CBD)
		if err != nil {
			return nil, err
		}
		resolution.ParentID = parent.ID
		resolution.VariantID = variant.ID
		resolution.VariantIsNew = created
		if err := runHook(ctx, hook, listing, variant); err != nil {
			return nil, err
		}
	}

	tracing.Annotate(ctx, "listing.source", listing.Source, "resolution.decision", decision.String())
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"source":   listing.Source,
		"raw_name": listing.Original.Name,
		"decision": decision.String(),
		"score":    score.Total,
	}).Debug("Resolved listing")

	return resolution, nil
}

// CreateParent stores a new weight-free parent under the named brand.
func (r *EntityResolver) CreateParent(ctx context.Context, name, brandName, category string, thc, cbd *models.Potency) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.EntityResolver.CreateParent")
	defer span.End()

	brand, err := r.brands.GetOrCreate(ctx, brandName)
	if err != nil {
		return nil, err
	}

	parent := &models.Product{
		IsMaster:  true,
		Name:      name,
		BrandID:   brand.ID,
		BrandName: brand.Name,
		Category:  category,
	}
	parent.SetTHC(thc)
	parent.SetCBD(cbd)

	return r.products.Create(ctx, parent)
}

func (r *EntityResolver) flag(ctx context.Context, listing *NormalizedListing, best *matching.Candidate, score models.MatchScore) (*models.ReviewQueueEntry, error) {
	existing, err := r.reviews.FindPending(ctx, listing.Source, listing.Original.Name, listing.Weight.Label, best.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := r.reviews.Refresh(ctx, existing.ID, listing.Price, score); err != nil {
			return nil, err
		}
		return existing, nil
	}

	entry := &models.ReviewQueueEntry{
		Source:            listing.Source,
		OriginalName:      listing.Original.Name,
		BrandName:         listing.Brand,
		Category:          listing.Category,
		WeightLabel:       listing.Weight.Label,
		WeightGrams:       listing.Weight.Grams,
		Price:             listing.Price,
		SuggestedParentID: best.ID,
		Confidence:        score.Total,
		NameScore:         score.Name,
		BrandScore:        score.Brand,
		PotencyScore:      score.Potency,
	}
	if raw := strings.TrimSpace(listing.Original.Weight); raw != "" {
		entry.WeightRaw = &raw
	}
	entry.SetTHC(listing.THC)
	entry.SetCBD(listing.CBD)

	return r.reviews.Create(ctx, entry)
}

func runHook(ctx context.Context, hook VariantHook, listing *NormalizedListing, variant *models.Product) error {
	if hook == nil {
		return nil
	}
	return hook(ctx, listing, variant)
}
