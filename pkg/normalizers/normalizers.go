// Package normalizers provides the string normalization applied to product
// names and brands before they are compared.
package normalizers

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

var registry = make(map[string]Normalizer)

// ProductNameChain and BrandChain are the registered steps behind ProductName and Brand.
var (
	ProductNameChain = []string{"strip_trademarks", "fold_accents", "lowercase", "collapse_whitespace", "strip_legal_suffixes"}
	BrandChain       = []string{"strip_trademarks", "fold_accents", "lowercase", "collapse_whitespace", "strip_legal_suffixes"}
)

var (
	trademarkText = regexp.MustCompile(`(?i)\((?:tm|r|c)\)`)
	whitespace    = regexp.MustCompile(`\s+`)
)

var legalSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"llc":          true,
	"l.l.c":        true,
	"ltd":          true,
	"limited":      true,
	"co":           true,
	"corp":         true,
	"corporation":  true,
	"company":      true,
	"plc":          true,
	"llp":          true,
	"lp":           true,
}

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("strip_trademarks", StripTrademarks)
	Register("fold_accents", FoldAccents)
	Register("strip_legal_suffixes", StripLegalSuffixes)
	Register("product_name", ProductName)
	Register("brand", Brand)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// ProductName is the comparison form of a cleaned product name.
func ProductName(s string) string {
	return ApplyChain(s, ProductNameChain...)
}

// Brand is the comparison form of a brand.
func Brand(s string) string {
	return ApplyChain(s, BrandChain...)
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// CollapseWhitespace trims and squeezes internal runs of whitespace to one space
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// StripTrademarks removes ™, ®, ℠, © and their parenthesized spellings
func StripTrademarks(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '™', '®', '℠', '©':
			return ' '
		}
		return r
	}, s)
	return trademarkText.ReplaceAllString(s, " ")
}

// FoldAccents decomposes and drops combining marks so "Café" compares equal to "Cafe"
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// StripLegalSuffixes drops trailing company designators ("Inc.", ", LLC", "Co").
// A value made only of a designator is left alone.
func StripLegalSuffixes(s string) string {
	tokens := strings.Fields(s)
	for len(tokens) > 1 {
		last := strings.TrimRight(strings.ToLower(tokens[len(tokens)-1]), ".,")
		if !legalSuffixes[last] {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) > 0 {
		tokens[len(tokens)-1] = strings.TrimRight(tokens[len(tokens)-1], ",")
	}
	return strings.Join(tokens, " ")
}
