package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type PotencyUnit string

const (
	PotencyPercent    PotencyUnit = "percent"
	PotencyMilligrams PotencyUnit = "mg"
)

// ParsePotencyUnit accepts the unit spellings scrapers emit.
func ParsePotencyUnit(raw string) (PotencyUnit, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "%", "percent", "pct":
		return PotencyPercent, true
	case "mg", "milligram", "milligrams":
		return PotencyMilligrams, true
	default:
		return "", false
	}
}

// Potency is a single cannabinoid measure.
type Potency struct {
	Value float64     `json:"value" yaml:"value"`
	Unit  PotencyUnit `json:"unit" yaml:"unit"`
}

// Valid reports whether p is a usable measurement. Percentages above 100 are
// treated as scraper noise.
func (p *Potency) Valid() bool {
	if p == nil || p.Value < 0 {
		return false
	}
	switch p.Unit {
	case PotencyPercent:
		return p.Value <= 100
	case PotencyMilligrams:
		return true
	default:
		return false
	}
}

// Comparable reports whether two measures share a unit.
func (p *Potency) Comparable(other *Potency) bool {
	return p.Valid() && other.Valid() && p.Unit == other.Unit
}

// Sanitized returns nil for invalid measures.
func (p *Potency) Sanitized() *Potency {
	if !p.Valid() {
		return nil
	}
	clone := *p
	return &clone
}

type potencyFields struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// UnmarshalJSON accepts either a bare number (percent) or {"value", "unit"}.
func (p *Potency) UnmarshalJSON(data []byte) error {
	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		*p = Potency{Value: number, Unit: PotencyPercent}
		return nil
	}

	var fields potencyFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("potency must be a number or an object: %w", err)
	}
	return p.fromFields(fields)
}

func (p *Potency) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var number float64
		if err := node.Decode(&number); err != nil {
			return fmt.Errorf("potency must be a number or a mapping: %w", err)
		}
		*p = Potency{Value: number, Unit: PotencyPercent}
		return nil
	}

	var fields potencyFields
	if err := node.Decode(&fields); err != nil {
		return err
	}
	return p.fromFields(fields)
}

func (p *Potency) fromFields(fields potencyFields) error {
	unit, ok := ParsePotencyUnit(fields.Unit)
	if !ok {
		return fmt.Errorf("unknown potency unit %q", fields.Unit)
	}
	*p = Potency{Value: fields.Value, Unit: unit}
	return nil
}

func potencyFrom(value *float64, unit *string) *Potency {
	if value == nil || unit == nil {
		return nil
	}
	return &Potency{Value: *value, Unit: PotencyUnit(*unit)}
}

func potencyColumns(p *Potency) (*float64, *string) {
	if p == nil {
		return nil, nil
	}
	value := p.Value
	unit := string(p.Unit)
	return &value, &unit
}
