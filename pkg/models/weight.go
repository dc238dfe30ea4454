package models

const UnspecifiedWeightLabel = "unspecified"

// Weight is a normalized package size. Grams is nil when the size is unknown;
// "unspecified" is a distinct variant key.
type Weight struct {
	Label string   `json:"label"`
	Grams *float64 `json:"grams,omitempty"`
}

func Unspecified() Weight {
	return Weight{Label: UnspecifiedWeightLabel}
}

func (w Weight) IsSpecified() bool {
	return w.Grams != nil
}
