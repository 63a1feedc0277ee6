package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustVector(t *testing.T, in RawInput) FeatureVector {
	t.Helper()
	fv, err := BuildFeatureVector(in)
	require.NoError(t, err)
	return fv
}

func TestConfidence(t *testing.T) {
	cases := []struct {
		name string
		in   RawInput
		want ConfidenceLevel
	}{
		{
			name: "strong ratings and reviews",
			in:   RawInput{"rating": 4.6, "reviews": 600.0, "competition": "low", "stock": "high"},
			want: ConfidenceVeryHigh,
		},
		{
			name: "weak product in saturated market",
			in:   RawInput{"rating": 3.0, "reviews": 50.0, "competition": "saturated", "stock": "limited"},
			want: ConfidenceLow,
		},
		{
			name: "good rating few reviews",
			in:   RawInput{"rating": 4.2, "reviews": 150.0},
			want: ConfidenceHigh,
		},
		{
			name: "high competition costs a point",
			in:   RawInput{"rating": 4.2, "reviews": 150.0, "competition": "HIGH"},
			want: ConfidenceMedium,
		},
		{
			name: "boundaries are exclusive for reviews",
			in:   RawInput{"rating": 4.5, "reviews": 500.0},
			want: ConfidenceVeryHigh,
		},
		{
			name: "empty input",
			in:   RawInput{},
			want: ConfidenceLow,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Confidence(100, mustVector(t, tc.in), tc.in))
		})
	}
}

func TestMarketPosition(t *testing.T) {
	cases := []struct {
		name       string
		prediction float64
		in         RawInput
		want       MarketPosition
	}{
		{name: "trending beats price rules", prediction: 50, in: RawInput{"demand": "trending"}, want: PositionPremium},
		{name: "premium brand", prediction: 20, in: RawInput{"brand": "Premium"}, want: PositionPremium},
		{name: "declining cheap", prediction: 80, in: RawInput{"demand": "declining"}, want: PositionBudget},
		{name: "declining expensive", prediction: 300, in: RawInput{"demand": "declining"}, want: PositionMidRange},
		{name: "cheap", prediction: 99.99, in: RawInput{}, want: PositionBudget},
		{name: "mid", prediction: 100, in: RawInput{"demand": "regular"}, want: PositionMidRange},
		{name: "expensive", prediction: 250, in: RawInput{"brand": "generic"}, want: PositionPremium},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, MarketPositionFor(tc.prediction, mustVector(t, tc.in), tc.in))
		})
	}
}

func TestPriceRange(t *testing.T) {
	trending := RawInput{"demand": "trending"}
	require.Equal(t, "$80.0 - $120.0", PriceRange(100, mustVector(t, trending), trending))

	regular := RawInput{"demand": "regular"}
	require.Equal(t, "$90.0 - $110.0", PriceRange(100, mustVector(t, regular), regular))

	declining := RawInput{"demand": "Declining"}
	require.Equal(t, "$95.0 - $105.0", PriceRange(100, mustVector(t, declining), declining))

	require.Equal(t, "$44.99 - $54.99", PriceRange(49.99, FeatureVector{}, RawInput{}))
}

func TestCompetitiveIndex(t *testing.T) {
	cases := map[string]CompetitiveIndex{
		"low":           IndexVeryFavorable,
		"medium":        IndexFavorable,
		"High":          IndexCompetitive,
		"saturated":     IndexHighlySaturated,
		"unknown_value": IndexUnknown,
	}
	for label, want := range cases {
		in := RawInput{"competition": label}
		require.Equal(t, want, CompetitiveIndexFor(mustVector(t, in), in), label)
	}

	require.Equal(t, IndexFavorable, CompetitiveIndexFor(FeatureVector{}, RawInput{}))
}

func TestKPIsDoNotMutateInput(t *testing.T) {
	in := RawInput{"competition": "HIGH", "demand": "Trending", "brand": "Premium Plus"}
	fv := mustVector(t, in)
	before := fv

	Confidence(120, fv, in)
	MarketPositionFor(120, fv, in)
	PriceRange(120, fv, in)
	CompetitiveIndexFor(fv, in)

	require.Equal(t, before, fv)
	require.Equal(t, RawInput{"competition": "HIGH", "demand": "Trending", "brand": "Premium Plus"}, in)
}
