package weight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		label string
		grams float64
	}{
		{"3.5g", "3.5g", 3.5},
		{"1oz", "28g", 28},
		{"1 oz", "28g", 28},
		{"1/8 oz", "3.5g", 3.5},
		{"1/8th", "3.5g", 3.5},
		{"1/4 ounce", "7g", 7},
		{"1000mg", "1000mg", 1.0},
		{"100 mg", "100mg", 0.1},
		{"1g Pre-Roll", "1g", 1.0},
		{"Blue Dream 7 grams", "7g", 7},
		{"Vape Cart 0.5G", "0.5g", 0.5},
		{"Tincture 30ml", "30ml", 30},
		{"Gelato eighth", "3.5g", 3.5},
		{"Half oz Smalls", "14g", 14},
		{"Quarter Ounce", "7g", 7},
		{"3,5 g", "3.5g", 3.5},
		{"1,000mg", "1000mg", 1.0},
		{"Gummies 1,000mg", "1000mg", 1.0},
		{"2,500.5 mg", "2500.5mg", 2.5005},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w, ok := Parse(tt.input)
			require.True(t, ok)
			require.NotNil(t, w.Grams)
			assert.Equal(t, tt.label, w.Label)
			assert.InDelta(t, tt.grams, *w.Grams, 1e-9)
		})
	}
}

func TestParse_Unparseable(t *testing.T) {
	for _, input := range []string{"", "Blue Dream", "each", "0g", "1/0 oz", "5 pack"} {
		t.Run(input, func(t *testing.T) {
			w, ok := Parse(input)
			assert.False(t, ok)
			assert.Equal(t, models.UnspecifiedWeightLabel, w.Label)
			assert.Nil(t, w.Grams)
			assert.False(t, w.IsSpecified())
		})
	}
}

func TestParse_LabelRoundTrip(t *testing.T) {
	for _, input := range []string{"3.5g", "1oz", "1/8 oz", "1000mg", "2.5ml", "1/3 oz", "quarter oz"} {
		t.Run(input, func(t *testing.T) {
			first, ok := Parse(input)
			require.True(t, ok)

			second, ok := Parse(first.Label)
			require.True(t, ok)
			assert.InDelta(t, *first.Grams, *second.Grams, 1e-3)
			assert.Equal(t, first.Label, second.Label)
		})
	}
}

func TestParseField_BareNumberIsGrams(t *testing.T) {
	w, ok := ParseField(" 7 ")
	require.True(t, ok)
	assert.Equal(t, "7g", w.Label)
	assert.InDelta(t, 7.0, *w.Grams, 1e-9)
}

func TestFromListing(t *testing.T) {
	t.Run("explicit field wins", func(t *testing.T) {
		w := FromListing("1/8 oz", "Blue Dream 7g")
		assert.Equal(t, "3.5g", w.Label)
	})

	t.Run("falls back to the name", func(t *testing.T) {
		w := FromListing("", "Blue Dream 7g")
		assert.Equal(t, "7g", w.Label)
	})

	t.Run("unparseable field falls back to the name", func(t *testing.T) {
		w := FromListing("each", "Blue Dream 1g")
		assert.Equal(t, "1g", w.Label)
	})

	t.Run("nothing parses", func(t *testing.T) {
		w := FromListing("", "Blue Dream")
		assert.Equal(t, models.Unspecified(), w)
	})
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Blue Dream 3.5g", "Blue Dream"},
		{"Blue Dream 7g", "Blue Dream"},
		{"Blue Dream - 1/8 oz", "Blue Dream"},
		{"Blue Dream (3.5g)", "Blue Dream"},
		{"1g Pre-Roll", "Pre-Roll"},
		{"Gummies 100mg | Watermelon", "Gummies | Watermelon"},
		{"Sour Diesel 3.5g (1/8 oz)", "Sour Diesel"},
		{"  Wedding   Cake  ", "Wedding Cake"},
		{"Blue Dream - 3.5g - Indica", "Blue Dream - Indica"},
		{"Gelato | 1/8 oz | Hybrid", "Gelato | Hybrid"},
		{"Gummies 1,000mg", "Gummies"},
		{"3.5g", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanName(tt.input))
		})
	}
}
