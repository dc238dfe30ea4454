package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusApproved || s == ReviewStatusRejected
}

// ReviewQueueEntry holds an uncertain match with the listing exactly as it
// was scraped. No product exists for it until a reviewer acts.
type ReviewQueueEntry struct {
	ID                string          `db:"id" json:"id"`
	Source            string          `db:"source" json:"source"`
	OriginalName      string          `db:"original_name" json:"original_name"`
	BrandName         string          `db:"brand_name" json:"brand_name"`
	Category          string          `db:"category" json:"category"`
	WeightRaw         *string         `db:"weight_raw" json:"weight_raw,omitempty"`
	WeightLabel       string          `db:"weight_label" json:"weight_label"`
	WeightGrams       *float64        `db:"weight_grams" json:"weight_grams,omitempty"`
	Price             decimal.Decimal `db:"price" json:"price"`
	THCValue          *float64        `db:"thc_value" json:"thc_value,omitempty"`
	THCUnit           *string         `db:"thc_unit" json:"thc_unit,omitempty"`
	CBDValue          *float64        `db:"cbd_value" json:"cbd_value,omitempty"`
	CBDUnit           *string         `db:"cbd_unit" json:"cbd_unit,omitempty"`
	SuggestedParentID string          `db:"suggested_parent_id" json:"suggested_parent_id"`
	Confidence        float64         `db:"confidence" json:"confidence"`
	NameScore         float64         `db:"name_score" json:"name_score"`
	BrandScore        float64         `db:"brand_score" json:"brand_score"`
	PotencyScore      float64         `db:"potency_score" json:"potency_score"`
	Status            ReviewStatus    `db:"status" json:"status"`
	ResolvedParentID  *string         `db:"resolved_parent_id" json:"resolved_parent_id,omitempty"`
	ResolvedVariantID *string         `db:"resolved_variant_id" json:"resolved_variant_id,omitempty"`
	ResolvedBy        *string         `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
	ResolvedAt        *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
}

func (e *ReviewQueueEntry) THC() *Potency {
	return potencyFrom(e.THCValue, e.THCUnit)
}

func (e *ReviewQueueEntry) CBD() *Potency {
	return potencyFrom(e.CBDValue, e.CBDUnit)
}

func (e *ReviewQueueEntry) SetTHC(potency *Potency) {
	e.THCValue, e.THCUnit = potencyColumns(potency.Sanitized())
}

func (e *ReviewQueueEntry) SetCBD(potency *Potency) {
	e.CBDValue, e.CBDUnit = potencyColumns(potency.Sanitized())
}

func (e *ReviewQueueEntry) Weight() Weight {
	return Weight{Label: e.WeightLabel, Grams: e.WeightGrams}
}

// ReviewOutcome is what approving or rejecting an entry produced.
type ReviewOutcome struct {
	Entry     *ReviewQueueEntry `json:"entry"`
	ParentID  string            `json:"parent_id"`
	VariantID string            `json:"variant_id"`
}
