package resolver

import (
	"context"

	"github.com/PKayu/cannabis-compare-sub000/pkg/matching"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/normalizers"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

// CandidateCache is the in-memory snapshot of parent products for one batch.
// It is owned by a single batch and is not safe for concurrent use.
type CandidateCache struct {
	candidates []*matching.Candidate
	parents    map[string]*models.Product
}

func NewCandidateCache() *CandidateCache {
	return &CandidateCache{parents: make(map[string]*models.Product)}
}

// LoadCandidateCache snapshots every parent in the catalog.
func LoadCandidateCache(ctx context.Context, products ProductStore) (*CandidateCache, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.LoadCandidateCache")
	defer span.End()

	parents, err := products.ListParents(ctx)
	if err != nil {
		return nil, err
	}

	cache := NewCandidateCache()
	for i := range parents {
		cache.Append(&parents[i])
	}
	return cache, nil
}

// CandidateFor projects a parent into its comparable form.
func CandidateFor(parent *models.Product) *matching.Candidate {
	return &matching.Candidate{
		Features: matching.Features{
			Name:  normalizers.ProductName(parent.Name),
			Brand: normalizers.Brand(parent.BrandName),
			THC:   parent.THC(),
			CBD:   parent.CBD(),
		},
		ID:          parent.ID,
		DisplayName: parent.Name,
		BrandID:     parent.BrandID,
		Category:    parent.Category,
	}
}

// Append makes a parent visible to every later lookup in the batch.
func (c *CandidateCache) Append(parent *models.Product) {
	c.candidates = append(c.candidates, CandidateFor(parent))
	c.parents[parent.ID] = parent
}

func (c *CandidateCache) Candidates() []*matching.Candidate {
	return c.candidates
}

func (c *CandidateCache) Parent(id string) (*models.Product, bool) {
	parent, ok := c.parents[id]
	return parent, ok
}

func (c *CandidateCache) Len() int {
	return len(c.candidates)
}

// Mark returns a position that Truncate can roll the cache back to.
func (c *CandidateCache) Mark() int {
	return len(c.candidates)
}

// Truncate forgets every parent appended after mark.
func (c *CandidateCache) Truncate(mark int) {
	if mark < 0 || mark >= len(c.candidates) {
		return
	}
	for _, candidate := range c.candidates[mark:] {
		delete(c.parents, candidate.ID)
	}
	for i := mark; i < len(c.candidates); i++ {
		c.candidates[i] = nil
	}
	c.candidates = c.candidates[:mark]
}
