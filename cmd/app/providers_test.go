package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/price-predictor/internal/infra/config"
	"github.com/yanqian/price-predictor/internal/infra/explaincache"
	"github.com/yanqian/price-predictor/internal/infra/llm/chatgpt"
	"github.com/yanqian/price-predictor/internal/infra/llm/claude"
	"github.com/yanqian/price-predictor/internal/infra/model"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProvideRegressorFromArtifact(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{Path: filepath.Join("..", "..", "models", "price_model.json")}}

	regressor, err := provideRegressor(cfg, newTestLogger())
	require.NoError(t, err)
	out, err := regressor.PredictBatch(context.Background(), [][]float64{{0, 0, 4.8, 1200, 2, 0, 0, 2, 0, 0}})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestProvideRegressorPrefersEndpoint(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{Path: "missing.json", Endpoint: "http://localhost:8501/predict"}}

	regressor, err := provideRegressor(cfg, newTestLogger())
	require.NoError(t, err)
	require.IsType(t, &model.Remote{}, regressor)
}

func TestProvideRegressorMissingArtifact(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{Path: filepath.Join(t.TempDir(), "missing.json")}}

	_, err := provideRegressor(cfg, newTestLogger())
	require.Error(t, err)
}

func TestProvideTextGenerator(t *testing.T) {
	logger := newTestLogger()

	require.Nil(t, provideTextGenerator(&config.Config{LLM: config.LLMConfig{Provider: config.ProviderNone, APIKey: "k"}}, logger))
	require.Nil(t, provideTextGenerator(&config.Config{LLM: config.LLMConfig{Provider: config.ProviderGemini}}, logger))

	gen := provideTextGenerator(&config.Config{LLM: config.LLMConfig{Provider: config.ProviderGemini, APIKey: "k", Model: "gemini-2.0-flash"}}, logger)
	require.IsType(t, &chatgpt.Generator{}, gen)

	gen = provideTextGenerator(&config.Config{LLM: config.LLMConfig{Provider: config.ProviderAnthropic, APIKey: "k"}}, logger)
	require.IsType(t, &claude.Generator{}, gen)
}

func TestProvideExplanationCache(t *testing.T) {
	logger := newTestLogger()

	require.Nil(t, provideExplanationCache(&config.Config{}, logger))

	cache := provideExplanationCache(&config.Config{ExplanationCache: config.ExplanationCacheConfig{Enabled: true}}, logger)
	require.IsType(t, &explaincache.MemoryStore{}, cache)
}

func TestBuildValkeyOptions(t *testing.T) {
	opt, err := buildValkeyOptions(config.RedisConfig{Addr: "localhost:6379"})
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:6379"}, opt.InitAddress)

	opt, err = buildValkeyOptions(config.RedisConfig{Addr: "redis://cache:6380/0"})
	require.NoError(t, err)
	require.Equal(t, []string{"cache:6380"}, opt.InitAddress)
}
