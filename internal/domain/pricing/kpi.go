package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Confidence scores input quality: strong ratings and review counts add points,
// crowded markets and scarce stock subtract them.
func Confidence(_ float64, fv FeatureVector, in RawInput) ConfidenceLevel {
	score := 0
	switch rating := fv.Rating(); {
	case rating >= 4.5:
		score += 2
	case rating >= 4.0:
		score++
	}
	switch reviews := fv.Reviews(); {
	case reviews > 500:
		score += 2
	case reviews > 100:
		score++
	}
	switch in.label(FieldCompetition, "medium") {
	case "high", "saturated":
		score--
	}
	if in.label(FieldStock, "medium") == "limited" {
		score--
	}

	switch {
	case score >= 3:
		return ConfidenceVeryHigh
	case score == 2:
		return ConfidenceHigh
	case score == 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// MarketPositionFor applies the positioning rules in order; the first match wins.
func MarketPositionFor(prediction float64, _ FeatureVector, in RawInput) MarketPosition {
	demand := in.label(FieldDemand, "regular")
	brand := in.label(FieldBrand, "generic")

	if strings.Contains(brand, "premium") || demand == "trending" {
		return PositionPremium
	}
	if demand == "declining" {
		if prediction < 100 {
			return PositionBudget
		}
		return PositionMidRange
	}
	switch {
	case prediction < 100:
		return PositionBudget
	case prediction < 250:
		return PositionMidRange
	default:
		return PositionPremium
	}
}

// PriceRange widens the prediction by a demand dependent margin, e.g. "$90.0 - $110.0".
func PriceRange(prediction float64, _ FeatureVector, in RawInput) string {
	margin := 0.10
	switch in.label(FieldDemand, "regular") {
	case "trending":
		margin = 0.20
	case "declining":
		margin = 0.05
	}
	lower := round2(prediction * (1 - margin))
	upper := round2(prediction * (1 + margin))
	return "$" + formatAmount(lower) + " - $" + formatAmount(upper)
}

var competitiveIndex = map[string]CompetitiveIndex{
	"low":       IndexVeryFavorable,
	"medium":    IndexFavorable,
	"high":      IndexCompetitive,
	"saturated": IndexHighlySaturated,
}

// CompetitiveIndexFor maps the competition label. An absent value reads as "medium";
// a present but unrecognised one is Unknown.
func CompetitiveIndexFor(_ FeatureVector, in RawInput) CompetitiveIndex {
	if idx, ok := competitiveIndex[in.label(FieldCompetition, "medium")]; ok {
		return idx
	}
	return IndexUnknown
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatAmount always keeps one decimal digit so whole amounts read "80.0", not "80".
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
