package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is the latest price a source asks for a variant.
type Price struct {
	ID         string          `db:"id" json:"id"`
	VariantID  string          `db:"variant_id" json:"variant_id"`
	Source     string          `db:"source" json:"source"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	ObservedAt time.Time       `db:"observed_at" json:"observed_at"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}
