package models

import "time"

// Product is either a parent (IsMaster, no ParentID, no weight) or a
// variant (ParentID set, one weight).
type Product struct {
	ID          string    `db:"id" json:"id"`
	ParentID    *string   `db:"parent_id" json:"parent_id,omitempty"`
	IsMaster    bool      `db:"is_master" json:"is_master"`
	Name        string    `db:"name" json:"name"`
	BrandID     string    `db:"brand_id" json:"brand_id"`
	BrandName   string    `db:"brand_name" json:"brand_name"`
	Category    string    `db:"category" json:"category"`
	WeightLabel *string   `db:"weight_label" json:"weight_label,omitempty"`
	WeightGrams *float64  `db:"weight_grams" json:"weight_grams,omitempty"`
	THCValue    *float64  `db:"thc_value" json:"thc_value,omitempty"`
	THCUnit     *string   `db:"thc_unit" json:"thc_unit,omitempty"`
	CBDValue    *float64  `db:"cbd_value" json:"cbd_value,omitempty"`
	CBDUnit     *string   `db:"cbd_unit" json:"cbd_unit,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Product) THC() *Potency {
	return potencyFrom(p.THCValue, p.THCUnit)
}

func (p *Product) CBD() *Potency {
	return potencyFrom(p.CBDValue, p.CBDUnit)
}

func (p *Product) SetTHC(potency *Potency) {
	p.THCValue, p.THCUnit = potencyColumns(potency.Sanitized())
}

func (p *Product) SetCBD(potency *Potency) {
	p.CBDValue, p.CBDUnit = potencyColumns(potency.Sanitized())
}

// Weight returns the variant weight, or Unspecified for parents and
// variants without a parsed weight.
func (p *Product) Weight() Weight {
	if p.WeightLabel == nil {
		return Unspecified()
	}
	return Weight{Label: *p.WeightLabel, Grams: p.WeightGrams}
}

type Brand struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
