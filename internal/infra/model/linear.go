package model

import (
	"context"
	"fmt"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
)

// Linear is an intercept plus one weight per feature.
type Linear struct {
	intercept    float64
	coefficients [pricing.FeatureCount]float64
}

func newLinear(intercept float64, coefficients []float64) (*Linear, error) {
	if len(coefficients) != pricing.FeatureCount {
		return nil, fmt.Errorf("linear model has %d coefficients, want %d", len(coefficients), pricing.FeatureCount)
	}
	m := &Linear{intercept: intercept}
	copy(m.coefficients[:], coefficients)
	return m, nil
}

// PredictBatch scores every row.
func (m *Linear) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if err := checkRow(row); err != nil {
			return nil, err
		}
		sum := m.intercept
		for j, x := range row {
			sum += m.coefficients[j] * x
		}
		out[i] = sum
	}
	return out, nil
}
