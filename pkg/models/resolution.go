package models

import (
	"encoding/json"
	"fmt"
)

// Decision is the resolver's verdict for one listing.
type Decision int

const (
	DecisionNewParent Decision = iota
	DecisionFlag
	DecisionAutoMerge
)

func (d Decision) String() string {
	switch d {
	case DecisionAutoMerge:
		return "auto_merge"
	case DecisionFlag:
		return "flag"
	case DecisionNewParent:
		return "new_parent"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// MatchScore is the breakdown of a listing scored against one candidate.
type MatchScore struct {
	CandidateID string  `json:"candidate_id"`
	Name        float64 `json:"name"`
	Brand       float64 `json:"brand"`
	Potency     float64 `json:"potency"`
	Total       float64 `json:"total"`
}

// Resolution describes what happened to one listing. VariantID is empty for
// flagged listings; ReviewEntryID is set only for them.
type Resolution struct {
	Decision      Decision    `json:"decision"`
	ParentID      string      `json:"parent_id,omitempty"`
	VariantID     string      `json:"variant_id,omitempty"`
	VariantIsNew  bool        `json:"variant_is_new"`
	ReviewEntryID string      `json:"review_entry_id,omitempty"`
	Score         *MatchScore `json:"score,omitempty"`
	Weight        Weight      `json:"weight"`
}

// ListingOutcome is the per-listing line of a batch report.
type ListingOutcome struct {
	Index      int         `json:"index"`
	Name       string      `json:"name"`
	Resolution *Resolution `json:"resolution,omitempty"`
	Skipped    bool        `json:"skipped,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// BatchReport summarizes one processed batch.
type BatchReport struct {
	BatchID    string           `json:"batch_id"`
	Source     string           `json:"source"`
	Received   int              `json:"received"`
	Skipped    int              `json:"skipped"`
	AutoMerged int              `json:"auto_merged"`
	Flagged    int              `json:"flagged"`
	NewParents int              `json:"new_parents"`
	Failed     int              `json:"failed"`
	Outcomes   []ListingOutcome `json:"outcomes"`
	DurationMS int64            `json:"duration_ms"`
}

func (r *BatchReport) Record(outcome ListingOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	switch {
	case outcome.Skipped:
		r.Skipped++
	case outcome.Error != "":
		r.Failed++
	case outcome.Resolution != nil:
		switch outcome.Resolution.Decision {
		case DecisionAutoMerge:
			r.AutoMerged++
		case DecisionFlag:
			r.Flagged++
		case DecisionNewParent:
			r.NewParents++
		}
	}
}
