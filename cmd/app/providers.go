package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
	"github.com/yanqian/price-predictor/internal/infra/config"
	"github.com/yanqian/price-predictor/internal/infra/explaincache"
	"github.com/yanqian/price-predictor/internal/infra/llm/chatgpt"
	"github.com/yanqian/price-predictor/internal/infra/llm/claude"
	"github.com/yanqian/price-predictor/internal/infra/model"
)

func provideRegressor(cfg *config.Config, logger *slog.Logger) (pricing.Regressor, error) {
	if endpoint := strings.TrimSpace(cfg.Model.Endpoint); endpoint != "" {
		logger.Info("using remote model server", "endpoint", endpoint)
		return model.NewRemote(endpoint, cfg.Model.Timeout)
	}
	regressor, err := model.Load(cfg.Model.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("model artifact loaded", "path", cfg.Model.Path)
	return regressor, nil
}

func provideExplainerConfig(cfg *config.Config) pricing.ExplainerConfig {
	return pricing.ExplainerConfig{
		Persona:  cfg.LLM.Persona,
		Timeout:  cfg.LLM.Timeout,
		CacheTTL: cfg.ExplanationCache.TTL,
	}
}

// provideTextGenerator returns nil when explanations are disabled; the explainer then answers
// with its fallback text instead of failing startup.
func provideTextGenerator(cfg *config.Config, logger *slog.Logger) pricing.TextGenerator {
	if cfg.LLM.Provider == config.ProviderNone {
		logger.Info("text generation disabled by configuration")
		return nil
	}
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("llm api key not set, explanations disabled", "provider", cfg.LLM.Provider)
		return nil
	}

	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		gen, err := claude.NewGenerator(cfg.LLM.APIKey, cfg.LLM.Model, float64(cfg.LLM.Temperature), cfg.LLM.MaxTokens)
		if err != nil {
			logger.Error("failed to create anthropic client, explanations disabled", "error", err)
			return nil
		}
		logger.Info("anthropic text generation enabled", "model", cfg.LLM.Model)
		return gen
	default:
		baseURL := cfg.LLM.BaseURL
		if baseURL == "" && cfg.LLM.Provider == config.ProviderGemini {
			baseURL = chatgpt.GeminiBaseURL
		}
		client, err := chatgpt.NewClient(cfg.LLM.APIKey, baseURL)
		if err != nil {
			logger.Error("failed to create chat client, explanations disabled", "error", err)
			return nil
		}
		logger.Info("chat completion text generation enabled", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
		return chatgpt.NewGenerator(client, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	}
}

func provideExplanationCache(cfg *config.Config, logger *slog.Logger) pricing.ExplanationCache {
	if !cfg.ExplanationCache.Enabled {
		return nil
	}
	if cfg.ExplanationCache.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg.ExplanationCache.Redis)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return explaincache.NewMemoryStore(cfg.ExplanationCache.MaxEntries)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return explaincache.NewMemoryStore(cfg.ExplanationCache.MaxEntries)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("valkey explanation cache enabled", "addr", cfg.ExplanationCache.Redis.Addr)
			return explaincache.NewValkeyStore(client, cfg.ExplanationCache.Redis.Prefix)
		}
	}
	return explaincache.NewMemoryStore(cfg.ExplanationCache.MaxEntries)
}

func buildValkeyOptions(cfg config.RedisConfig) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Addr, "://") {
		return valkey.ParseURL(cfg.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Addr}}, nil
}
