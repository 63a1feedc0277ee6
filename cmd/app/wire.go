//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/price-predictor/internal/bootstrap"
	"github.com/yanqian/price-predictor/internal/domain/pricing"
	"github.com/yanqian/price-predictor/internal/infra/config"
	httpiface "github.com/yanqian/price-predictor/internal/interface/http"
	"github.com/yanqian/price-predictor/pkg/logger"
	"github.com/yanqian/price-predictor/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.New,
		provideRegressor,
		provideExplainerConfig,
		provideTextGenerator,
		provideExplanationCache,
		pricing.NewExplainer,
		pricing.NewService,
		wire.Bind(new(pricing.Recorder), new(*metrics.Recorder)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
