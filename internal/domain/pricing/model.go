package pricing

import "time"

// Error codes surfaced through pkg/errors.AppError.
const (
	// CodeInvalidInput marks a rating or reviews value that cannot be read as a number.
	CodeInvalidInput = "invalid_input"
	// CodePredictionFailed marks a failed or malformed model call.
	CodePredictionFailed = "prediction_failed"
)

// RawInput is the untyped form payload of a single request, keyed by field name.
// Values arrive as strings (form posts) or JSON scalars; every key is optional.
type RawInput map[string]any

// Field names a recognised RawInput key.
type Field string

const (
	FieldCategory    Field = "category"
	FieldBrand       Field = "brand"
	FieldRating      Field = "rating"
	FieldReviews     Field = "reviews"
	FieldShipping    Field = "shipping"
	FieldSeller      Field = "seller"
	FieldCompetition Field = "competition"
	FieldDemand      Field = "demand"
	FieldProductAge  Field = "productAge"
	FieldStock       Field = "stock"
)

// ConfidenceLevel is the additive confidence label, not a probability.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "Very High"
	ConfidenceHigh     ConfidenceLevel = "High"
	ConfidenceMedium   ConfidenceLevel = "Medium"
	ConfidenceLow      ConfidenceLevel = "Low"
)

// MarketPosition buckets the product against the market.
type MarketPosition string

const (
	PositionPremium  MarketPosition = "Premium"
	PositionMidRange MarketPosition = "Mid-range"
	PositionBudget   MarketPosition = "Budget"
)

// CompetitiveIndex describes how crowded the product's market is.
type CompetitiveIndex string

const (
	IndexVeryFavorable   CompetitiveIndex = "Very Favorable"
	IndexFavorable       CompetitiveIndex = "Favorable"
	IndexCompetitive     CompetitiveIndex = "Competitive"
	IndexHighlySaturated CompetitiveIndex = "Highly Saturated"
	IndexUnknown         CompetitiveIndex = "Unknown"
)

// Response is serialized back to API consumers. The three explanation fields carry the same
// text; existing front ends read different keys.
type Response struct {
	PredictedPrice     float64          `json:"predicted_price"`
	AnomalyExplanation string           `json:"anomaly_explanation"`
	AIAnalysis         string           `json:"ai_analysis"`
	Recommendations    string           `json:"recommendations"`
	Confidence         ConfidenceLevel  `json:"confidence"`
	MarketPosition     MarketPosition   `json:"market_position"`
	PriceRange         string           `json:"price_range"`
	CompetitiveIndex   CompetitiveIndex `json:"competitive_index"`
}

// ExplainerConfig wires the explanation adapter.
type ExplainerConfig struct {
	Persona  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func (in RawInput) value(field Field) (any, bool) {
	v, ok := in[string(field)]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
