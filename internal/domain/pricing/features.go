package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/yanqian/price-predictor/pkg/errors"
)

// FeatureCount is the width of the model input row.
const FeatureCount = 10

// featureOrder is the column layout the model was trained on. Reordering it corrupts every prediction.
var featureOrder = [FeatureCount]Field{
	FieldCategory,
	FieldBrand,
	FieldRating,
	FieldReviews,
	FieldShipping,
	FieldSeller,
	FieldCompetition,
	FieldDemand,
	FieldProductAge,
	FieldStock,
}

// FeatureVector is one model input row. It is an array so copies never share storage.
type FeatureVector [FeatureCount]float64

// FeatureOrder returns the field name of every vector position.
func FeatureOrder() []Field {
	out := make([]Field, FeatureCount)
	copy(out, featureOrder[:])
	return out
}

// Slice returns a fresh slice for model clients.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Rating returns the rating column.
func (v FeatureVector) Rating() float64 { return v[2] }

// Reviews returns the reviews column.
func (v FeatureVector) Reviews() float64 { return v[3] }

func (v FeatureVector) String() string {
	parts := make([]string, FeatureCount)
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// BuildFeatureVector encodes a raw request into the model's fixed column order.
// Unknown categorical labels become 0; a rating or reviews value that is present but not
// numeric fails with CodeInvalidInput.
func BuildFeatureVector(in RawInput) (FeatureVector, error) {
	var fv FeatureVector
	for i, field := range featureOrder {
		switch field {
		case FieldRating, FieldReviews:
			n, err := coerceNumber(field, in[string(field)])
			if err != nil {
				return FeatureVector{}, err
			}
			fv[i] = n
		default:
			fv[i] = float64(Encode(field, in[string(field)]))
		}
	}
	return fv, nil
}

// coerceNumber treats missing, null, empty and false values as 0.
func coerceNumber(field Field, value any) (float64, error) {
	var (
		n   float64
		err error
	)
	switch v := value.(type) {
	case nil:
		return 0, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		n, err = strconv.ParseFloat(v.String(), 64)
	case string:
		if v == "" {
			return 0, nil
		}
		n, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		err = fmt.Errorf("unsupported type %T", value)
	}
	if err != nil {
		return 0, apperrors.Wrap(CodeInvalidInput, fmt.Sprintf("%s must be numeric, got %q", field, stringify(value)), err)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, apperrors.Wrap(CodeInvalidInput, fmt.Sprintf("%s must be a finite number, got %q", field, stringify(value)), nil)
	}
	return n, nil
}
