package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

func TestCandidateCache_AppendAndTruncate(t *testing.T) {
	cache := NewCandidateCache()
	cache.Append(&models.Product{ID: "a", IsMaster: true, Name: "Blue Dream™", BrandName: "Tryke, LLC"})

	mark := cache.Mark()
	cache.Append(&models.Product{ID: "b", IsMaster: true, Name: "Gelato", BrandName: "Wyld"})
	assert.Equal(t, 2, cache.Len())

	cache.Truncate(mark)
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Parent("b")
	assert.False(t, ok)

	parent, ok := cache.Parent("a")
	assert.True(t, ok)
	assert.Equal(t, "Blue Dream™", parent.Name)

	candidate := cache.Candidates()[0]
	assert.Equal(t, "blue dream", candidate.Name)
	assert.Equal(t, "tryke", candidate.Brand)
	assert.Equal(t, "Blue Dream™", candidate.DisplayName)

	cache.Truncate(5)
	assert.Equal(t, 1, cache.Len())
}
