// Package weight extracts package sizes from scraped weight fields and
// product names and normalizes them to grams.
package weight

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

const (
	GramsPerOunce     = 28.0
	MilligramsPerGram = 1000.0
	// GramsPerMilliliter treats liquid volume as mass for size keys.
	GramsPerMilliliter = 1.0
)

type family int

const (
	familyMass family = iota
	familyMilligram
	familyVolume
)

var (
	fractionPattern = regexp.MustCompile(`(?i)\b(\d+)\s*/\s*(\d+)\s*(?:th\s*(?:oz|ounces?)?|oz|ounces?)\b`)
	namedPattern    = regexp.MustCompile(`(?i)\b(eighth|quarter\s*(?:oz|ounce)|half\s*(?:oz|ounce))\b`)
	unitPattern     = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:[.,]\d+)?|[.,]\d+)\s*(milligrams?|mg|millilit(?:er|re)s?|ml|grams?|gr|g|ounces?|oz)\b`)
	bareNumber      = regexp.MustCompile(`^\s*(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:[.,]\d+)?)\s*$`)
	// "1,000" and "12,500.5" group thousands; any other comma is a decimal comma
	groupedThousands = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)

	emptyBrackets   = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	spaces          = regexp.MustCompile(`\s+`)
	danglingJoiners = regexp.MustCompile(`^[\s\-|,/:·]+|[\s\-|,/:·]+$`)
	separatorRuns   = regexp.MustCompile(`\s*([-|/])\s*(?:[-|/]\s*)+`)
)

var namedGrams = map[string]float64{
	"eighth":  3.5,
	"quarter": 7,
	"half":    14,
}

type match struct {
	start, end int
	amount     float64
	family     family
}

// Parse reads the first weight expression in s.
func Parse(s string) (models.Weight, bool) {
	matches := findAll(s)
	if len(matches) == 0 {
		return models.Unspecified(), false
	}
	return toWeight(matches[0])
}

// ParseField parses an explicit weight field, where a bare number means grams.
func ParseField(s string) (models.Weight, bool) {
	if m := bareNumber.FindStringSubmatch(s); m != nil {
		amount, ok := parseNumber(m[1])
		if !ok {
			return models.Unspecified(), false
		}
		return toWeight(match{amount: amount, family: familyMass})
	}
	return Parse(s)
}

// FromListing prefers the explicit weight field and falls back to the name.
func FromListing(weightField, name string) models.Weight {
	if w, ok := ParseField(weightField); ok {
		return w
	}
	if w, ok := Parse(name); ok {
		return w
	}
	return models.Unspecified()
}

// CleanName removes every weight expression from name so that "Blue Dream 3.5g"
// and "Blue Dream 7g" reduce to the same product name.
func CleanName(name string) string {
	matches := findAll(name)
	if len(matches) == 0 {
		return tidy(name)
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m.start < last {
			continue
		}
		b.WriteString(name[last:m.start])
		b.WriteByte(' ')
		last = m.end
	}
	b.WriteString(name[last:])
	return tidy(b.String())
}

// Label renders grams the way Parse labels mass inputs.
func Label(grams float64) string {
	return formatAmount(grams) + "g"
}

func tidy(s string) string {
	for {
		cleaned := emptyBrackets.ReplaceAllString(s, " ")
		cleaned = separatorRuns.ReplaceAllString(cleaned, " $1 ")
		cleaned = spaces.ReplaceAllString(cleaned, " ")
		cleaned = danglingJoiners.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == s {
			return cleaned
		}
		s = cleaned
	}
}

func findAll(s string) []match {
	var matches []match

	for _, loc := range fractionPattern.FindAllStringSubmatchIndex(s, -1) {
		numerator, _ := strconv.ParseFloat(s[loc[2]:loc[3]], 64)
		denominator, _ := strconv.ParseFloat(s[loc[4]:loc[5]], 64)
		if denominator == 0 {
			continue
		}
		matches = append(matches, match{start: loc[0], end: loc[1], amount: numerator / denominator * GramsPerOunce, family: familyMass})
	}

	for _, loc := range namedPattern.FindAllStringSubmatchIndex(s, -1) {
		word := strings.ToLower(strings.Fields(s[loc[2]:loc[3]])[0])
		word = strings.TrimSuffix(strings.TrimSuffix(word, "oz"), "ounce")
		matches = append(matches, match{start: loc[0], end: loc[1], amount: namedGrams[word], family: familyMass})
	}

	for _, loc := range unitPattern.FindAllStringSubmatchIndex(s, -1) {
		amount, ok := parseNumber(s[loc[2]:loc[3]])
		if !ok {
			continue
		}
		m := match{start: loc[0], end: loc[1]}
		switch unit := strings.ToLower(s[loc[4]:loc[5]]); {
		case strings.HasPrefix(unit, "mg"), strings.HasPrefix(unit, "milligram"):
			m.amount, m.family = amount, familyMilligram
		case strings.HasPrefix(unit, "ml"), strings.HasPrefix(unit, "millilit"):
			m.amount, m.family = amount, familyVolume
		case strings.HasPrefix(unit, "oz"), strings.HasPrefix(unit, "ounce"):
			m.amount, m.family = amount*GramsPerOunce, familyMass
		default:
			m.amount, m.family = amount, familyMass
		}
		matches = append(matches, m)
	}

	// drop unit matches nested inside a fraction such as the "8 oz" of "1/8 oz"
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})
	kept := matches[:0]
	end := -1
	for _, m := range matches {
		if m.start < end {
			continue
		}
		kept = append(kept, m)
		end = m.end
	}
	return kept
}

func toWeight(m match) (models.Weight, bool) {
	if m.amount <= 0 || math.IsInf(m.amount, 0) || math.IsNaN(m.amount) {
		return models.Unspecified(), false
	}

	var grams float64
	var label string
	switch m.family {
	case familyMilligram:
		grams = m.amount / MilligramsPerGram
		label = formatAmount(m.amount) + "mg"
	case familyVolume:
		grams = m.amount * GramsPerMilliliter
		label = formatAmount(m.amount) + "ml"
	default:
		grams = m.amount
		label = Label(m.amount)
	}

	grams = round(grams, 6)
	return models.Weight{Label: label, Grams: &grams}, true
}

func parseNumber(raw string) (float64, bool) {
	if groupedThousands.MatchString(raw) {
		raw = strings.ReplaceAll(raw, ",", "")
	} else {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(round(v, 3), 'f', -1, 64)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
