package matching

import (
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

const (
	FieldName    = "name"
	FieldBrand   = "brand"
	FieldPotency = "potency"

	// scores are compared at this precision so 0.7+0.2 lands on 0.9
	scorePrecision = 6
)

// Config holds the weights and thresholds of the similarity model
type Config struct {
	NameWeight         float64
	BrandWeight        float64
	PotencyWeight      float64
	PotencyTolerance   float64
	AutoMergeThreshold float64
	ReviewThreshold    float64
}

// DefaultConfig returns the production weights and thresholds
func DefaultConfig() Config {
	return Config{
		NameWeight:         0.70,
		BrandWeight:        0.20,
		PotencyWeight:      0.10,
		PotencyTolerance:   30,
		AutoMergeThreshold: 0.90,
		ReviewThreshold:    0.60,
	}
}

// Features is the comparable projection of a listing or a parent product.
// Name and Brand are already normalized.
type Features struct {
	Name  string
	Brand string
	THC   *models.Potency
	CBD   *models.Potency
}

// Candidate is a parent product held in the candidate cache
type Candidate struct {
	Features
	ID          string
	DisplayName string
	BrandID     string
	Category    string
}

// SimilarityScorer scores listings against parent candidates and classifies the result
type SimilarityScorer struct {
	scorer  *Scorer
	config  Config
	weights map[string]float64
}

func NewSimilarityScorer(config Config) *SimilarityScorer {
	return &SimilarityScorer{
		scorer: NewScorer(),
		config: config,
		weights: map[string]float64{
			FieldName:    config.NameWeight,
			FieldBrand:   config.BrandWeight,
			FieldPotency: config.PotencyWeight,
		},
	}
}

func (s *SimilarityScorer) Config() Config {
	return s.config
}

// Score compares listing features with one candidate
func (s *SimilarityScorer) Score(listing Features, candidate *Candidate) models.MatchScore {
	scores := map[string]float64{
		FieldName:    s.scorer.TokenSortRatio(listing.Name, candidate.Name),
		FieldBrand:   s.scorer.TokenSortRatio(listing.Brand, candidate.Brand),
		FieldPotency: s.PotencySimilarity(listing, candidate.Features),
	}

	return models.MatchScore{
		CandidateID: candidate.ID,
		Name:        Round(scores[FieldName], scorePrecision),
		Brand:       Round(scores[FieldBrand], scorePrecision),
		Potency:     Round(scores[FieldPotency], scorePrecision),
		Total:       Round(s.scorer.WeightedScore(scores, s.weights), scorePrecision),
	}
}

// PotencySimilarity compares THC when both sides carry it in the same unit,
// otherwise CBD, and is neutral (1.0) when neither is comparable.
func (s *SimilarityScorer) PotencySimilarity(a, b Features) float64 {
	switch {
	case a.THC.Comparable(b.THC):
		return s.scorer.NumericProximity(a.THC.Value, b.THC.Value, s.config.PotencyTolerance)
	case a.CBD.Comparable(b.CBD):
		return s.scorer.NumericProximity(a.CBD.Value, b.CBD.Value, s.config.PotencyTolerance)
	default:
		return 1.0
	}
}

// Best returns the highest scoring candidate. Equal scores go to the
// lexicographically smaller normalized name, then the smaller ID.
func (s *SimilarityScorer) Best(listing Features, candidates []*Candidate) (*Candidate, models.MatchScore, bool) {
	var best *Candidate
	var bestScore models.MatchScore

	for _, candidate := range candidates {
		score := s.Score(listing, candidate)
		if best == nil || outranks(score, candidate, bestScore, best) {
			best, bestScore = candidate, score
		}
	}

	return best, bestScore, best != nil
}

func outranks(score models.MatchScore, candidate *Candidate, bestScore models.MatchScore, best *Candidate) bool {
	if score.Total != bestScore.Total {
		return score.Total > bestScore.Total
	}
	if candidate.Name != best.Name {
		return candidate.Name < best.Name
	}
	return candidate.ID < best.ID
}

// Decide maps a total score onto the three-way decision. Both thresholds are inclusive.
func (s *SimilarityScorer) Decide(total float64) models.Decision {
	total = Round(total, scorePrecision)
	switch {
	case total >= s.config.AutoMergeThreshold:
		return models.DecisionAutoMerge
	case total >= s.config.ReviewThreshold:
		return models.DecisionFlag
	default:
		return models.DecisionNewParent
	}
}
