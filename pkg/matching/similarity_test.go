package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

func percent(v float64) *models.Potency {
	return &models.Potency{Value: v, Unit: models.PotencyPercent}
}

func candidate(id, name, brand string, thc *models.Potency) *Candidate {
	return &Candidate{
		ID:          id,
		DisplayName: name,
		Features:    Features{Name: name, Brand: brand, THC: thc},
	}
}

func TestSimilarityScorer_Score(t *testing.T) {
	s := NewSimilarityScorer(DefaultConfig())

	t.Run("exact match", func(t *testing.T) {
		score := s.Score(Features{Name: "blue dream", Brand: "cookies", THC: percent(22)}, candidate("p1", "blue dream", "cookies", percent(22)))
		assert.Equal(t, 1.0, score.Total)
		assert.Equal(t, "p1", score.CandidateID)
	})

	t.Run("missing potency is neutral", func(t *testing.T) {
		score := s.Score(Features{Name: "blue dream", Brand: "cookies"}, candidate("p1", "blue dream", "cookies", percent(22)))
		assert.Equal(t, 1.0, score.Potency)
		assert.Equal(t, 1.0, score.Total)
	})

	t.Run("potency thirty points apart lands exactly on auto merge", func(t *testing.T) {
		score := s.Score(Features{Name: "blue dream", Brand: "cookies", THC: percent(10)}, candidate("p1", "blue dream", "cookies", percent(40)))
		assert.Equal(t, 0.0, score.Potency)
		assert.Equal(t, 0.9, score.Total)
		assert.Equal(t, models.DecisionAutoMerge, s.Decide(score.Total))
	})

	t.Run("different brand", func(t *testing.T) {
		score := s.Score(Features{Name: "blue dream", Brand: "zzzzzzz"}, candidate("p1", "blue dream", "cookies", nil))
		assert.InDelta(t, 0.8, score.Total, 1e-6)
		assert.Equal(t, models.DecisionFlag, s.Decide(score.Total))
	})

	t.Run("mg and percent are not comparable", func(t *testing.T) {
		mg := &models.Potency{Value: 100, Unit: models.PotencyMilligrams}
		score := s.Score(Features{Name: "gummies", Brand: "kiva", THC: mg}, candidate("p1", "gummies", "kiva", percent(10)))
		assert.Equal(t, 1.0, score.Potency)
	})

	t.Run("falls back to cbd", func(t *testing.T) {
		listing := Features{Name: "x", Brand: "y", CBD: percent(15)}
		c := candidate("p1", "x", "y", nil)
		c.CBD = percent(0)
		assert.InDelta(t, 0.5, s.PotencySimilarity(listing, c.Features), 1e-9)
	})
}

func TestSimilarityScorer_ScoreIsSymmetric(t *testing.T) {
	s := NewSimilarityScorer(DefaultConfig())
	a := Features{Name: "wedding cake", Brand: "cookies", THC: percent(25)}
	b := Features{Name: "wedding crasher", Brand: "cookie co", THC: percent(19)}

	ab := s.Score(a, &Candidate{ID: "b", Features: b})
	ba := s.Score(b, &Candidate{ID: "a", Features: a})
	assert.Equal(t, ab.Total, ba.Total)
}

func TestSimilarityScorer_Decide(t *testing.T) {
	s := NewSimilarityScorer(DefaultConfig())

	tests := []struct {
		score float64
		want  models.Decision
	}{
		{1.0, models.DecisionAutoMerge},
		{0.90, models.DecisionAutoMerge},
		{0.89999, models.DecisionFlag},
		{0.75, models.DecisionFlag},
		{0.60, models.DecisionFlag},
		{0.59999, models.DecisionNewParent},
		{0.0, models.DecisionNewParent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Decide(tt.score), "score %v", tt.score)
	}
}

func TestSimilarityScorer_Best(t *testing.T) {
	s := NewSimilarityScorer(DefaultConfig())

	t.Run("no candidates", func(t *testing.T) {
		_, _, ok := s.Best(Features{Name: "blue dream", Brand: "unknown"}, nil)
		assert.False(t, ok)
	})

	t.Run("highest score wins", func(t *testing.T) {
		candidates := []*Candidate{
			candidate("p1", "blue cheese", "cookies", nil),
			candidate("p2", "blue dream", "cookies", nil),
		}
		best, score, ok := s.Best(Features{Name: "blue dream", Brand: "cookies"}, candidates)
		require.True(t, ok)
		assert.Equal(t, "p2", best.ID)
		assert.Equal(t, 1.0, score.Total)
	})

	t.Run("ties go to the smaller normalized name", func(t *testing.T) {
		candidates := []*Candidate{
			candidate("p1", "kush og", "cookies", nil),
			candidate("p2", "og kush", "cookies", nil),
		}
		best, _, ok := s.Best(Features{Name: "og kush", Brand: "cookies"}, candidates)
		require.True(t, ok)
		assert.Equal(t, "p1", best.ID, "both score 1.0 under token sort")

		reversed := []*Candidate{candidates[1], candidates[0]}
		best, _, _ = s.Best(Features{Name: "og kush", Brand: "cookies"}, reversed)
		assert.Equal(t, "p1", best.ID)
	})
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "auto_merge", models.DecisionAutoMerge.String())
	assert.Equal(t, "flag", models.DecisionFlag.String())
	assert.Equal(t, "new_parent", models.DecisionNewParent.String())
}
