package pricing

import (
	"context"
	"fmt"
	"math"

	apperrors "github.com/yanqian/price-predictor/pkg/errors"
)

// Regressor is the loaded price model. Implementations must be safe for concurrent use.
type Regressor interface {
	PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error)
}

// Gateway performs the single model call of a request.
type Gateway struct {
	model Regressor
}

// NewGateway wraps a regressor.
func NewGateway(model Regressor) *Gateway {
	return &Gateway{model: model}
}

// Predict sends a one-row batch and returns its only result. Failures are not retried.
func (g *Gateway) Predict(ctx context.Context, fv FeatureVector) (float64, error) {
	if g.model == nil {
		return 0, apperrors.Wrap(CodePredictionFailed, "no model loaded", nil)
	}
	out, err := g.model.PredictBatch(ctx, [][]float64{fv.Slice()})
	if err != nil {
		return 0, apperrors.Wrap(CodePredictionFailed, "model call failed", err)
	}
	if len(out) != 1 {
		return 0, apperrors.Wrap(CodePredictionFailed, fmt.Sprintf("model returned %d results for 1 row", len(out)), nil)
	}
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		return 0, apperrors.Wrap(CodePredictionFailed, "model returned a non-finite value", nil)
	}
	return out[0], nil
}
