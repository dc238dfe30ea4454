package resolver

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

// DefaultGramTolerance is how far apart two gram values may be and still
// name the same variant.
const DefaultGramTolerance = 0.01

// VariantResolver finds or creates the weight variant of a parent that a
// price attaches to.
type VariantResolver struct {
	products  ProductStore
	tolerance float64
	logger    ectologger.Logger
}

func NewVariantResolver(products ProductStore, tolerance float64, logger ectologger.Logger) *VariantResolver {
	if tolerance < 0 {
		tolerance = DefaultGramTolerance
	}
	return &VariantResolver{
		products:  products,
		tolerance: tolerance,
		logger:    logger,
	}
}

// Resolve returns the variant of parent for weight and whether it was created.
// New variants inherit the parent's brand, category and potency; thc and cbd
// override the inherited potency when they are usable.
func (v *VariantResolver) Resolve(ctx context.Context, parent *models.Product, weight models.Weight, thc, cbd *models.Potency) (*models.Product, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.VariantResolver.Resolve")
	defer span.End()

	if !parent.IsMaster {
		return nil, false, models.ErrNotParent
	}
	if weight.Label == "" {
		weight = models.Unspecified()
	}

	existing, err := v.products.FindVariant(ctx, parent.ID, weight, v.tolerance)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	label := weight.Label
	variant := &models.Product{
		ParentID:    &parent.ID,
		IsMaster:    false,
		Name:        parent.Name,
		BrandID:     parent.BrandID,
		BrandName:   parent.BrandName,
		Category:    parent.Category,
		WeightLabel: &label,
		WeightGrams: weight.Grams,
	}
	variant.SetTHC(parent.THC())
	variant.SetCBD(parent.CBD())
	if thc.Valid() {
		variant.SetTHC(thc)
	}
	if cbd.Valid() {
		variant.SetCBD(cbd)
	}

	created, err := v.products.Create(ctx, variant)
	if err != nil {
		return nil, false, err
	}

	v.logger.WithContext(ctx).WithFields(map[string]any{
		"parent_id":  parent.ID,
		"variant_id": created.ID,
		"weight":     label,
	}).Debug("Created variant")

	return created, true, nil
}
