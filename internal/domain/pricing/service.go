package pricing

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/yanqian/price-predictor/pkg/errors"
)

// Service exposes the prediction flow.
type Service interface {
	Predict(ctx context.Context, in RawInput) (Response, error)
}

// Recorder receives prediction and explanation outcomes.
type Recorder interface {
	ObservePrediction(outcome string, elapsed time.Duration)
	ObserveExplanation(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObservePrediction(string, time.Duration) {}
func (nopRecorder) ObserveExplanation(string)               {}

type service struct {
	gateway   *Gateway
	explainer *Explainer
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires up the pricing domain.
func NewService(model Regressor, explainer *Explainer, recorder Recorder, logger *slog.Logger) Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &service{
		gateway:   NewGateway(model),
		explainer: explainer,
		recorder:  recorder,
		logger:    logger.With("component", "pricing.service"),
		now:       time.Now,
	}
}

func (s *service) Predict(ctx context.Context, in RawInput) (Response, error) {
	start := s.now()

	fv, err := BuildFeatureVector(in)
	if err != nil {
		s.recorder.ObservePrediction(CodeInvalidInput, s.now().Sub(start))
		return Response{}, err
	}

	prediction, err := s.gateway.Predict(ctx, fv)
	if err != nil {
		s.logger.Error("model prediction failed", "features", fv.String(), "error", err)
		s.recorder.ObservePrediction(CodePredictionFailed, s.now().Sub(start))
		return Response{}, err
	}

	explanation := s.explain(ctx, fv, prediction, in)
	resp := Response{
		PredictedPrice:     round2(prediction),
		AnomalyExplanation: explanation,
		AIAnalysis:         explanation,
		Recommendations:    explanation,
		Confidence:         Confidence(prediction, fv, in),
		MarketPosition:     MarketPositionFor(prediction, fv, in),
		PriceRange:         PriceRange(prediction, fv, in),
		CompetitiveIndex:   CompetitiveIndexFor(fv, in),
	}

	elapsed := s.now().Sub(start)
	s.recorder.ObservePrediction("ok", elapsed)
	s.logger.Info("prediction served",
		"predicted_price", resp.PredictedPrice,
		"confidence", resp.Confidence,
		"market_position", resp.MarketPosition,
		"latency_ms", elapsed.Milliseconds(),
	)
	return resp, nil
}

func (s *service) explain(ctx context.Context, fv FeatureVector, prediction float64, in RawInput) string {
	if s.explainer == nil {
		return unavailableText(errGenerationDisabled)
	}
	return s.explainer.Explain(ctx, fv, prediction, in)
}

// IsInvalidInput reports whether err came from malformed numeric input.
func IsInvalidInput(err error) bool {
	return apperrors.IsCode(err, CodeInvalidInput)
}
