package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is one scraped product record as it arrives from a source.
type Listing struct {
	Name     string           `json:"name" yaml:"name" validate:"required"`
	Brand    string           `json:"brand,omitempty" yaml:"brand"`
	Category string           `json:"category,omitempty" yaml:"category"`
	Weight   string           `json:"weight,omitempty" yaml:"weight"`
	Price    *decimal.Decimal `json:"price" yaml:"price" validate:"required,gt=0"`
	THC      *Potency         `json:"thc,omitempty" yaml:"thc"`
	CBD      *Potency         `json:"cbd,omitempty" yaml:"cbd"`
	URL      string           `json:"url,omitempty" yaml:"url"`
}

// ListingBatch is the output of one scraper run for one source.
type ListingBatch struct {
	ID        string    `json:"id,omitempty" yaml:"id"`
	Source    string    `json:"source" yaml:"source" validate:"required"`
	ScrapedAt time.Time `json:"scraped_at" yaml:"scraped_at"`
	Listings  []Listing `json:"listings" yaml:"listings"`
}
