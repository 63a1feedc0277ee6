package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM providers understood by the explanation adapter.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP             HTTPConfig             `yaml:"http"`
	Model            ModelConfig            `yaml:"model"`
	LLM              LLMConfig              `yaml:"llm"`
	ExplanationCache ExplanationCacheConfig `yaml:"explanationCache"`
	Metrics          MetricsConfig          `yaml:"metrics"`
	Scraper          ScraperConfig          `yaml:"scraper"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	StaticDir    string          `yaml:"staticDir"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// ModelConfig points at the trained regressor. Endpoint wins over Path when both are set.
type ModelConfig struct {
	Path     string        `yaml:"path"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LLMConfig selects and tunes the text generation provider.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
	Persona     string        `yaml:"persona"`
}

// ExplanationCacheConfig controls reuse of generated explanations.
type ExplanationCacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// MetricsConfig exposes the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ScraperConfig drives cmd/scraper.
type ScraperConfig struct {
	APIURL      string            `yaml:"apiUrl"`
	Timeout     time.Duration     `yaml:"timeout"`
	Sinks       []string          `yaml:"sinks"`
	CSVPath     string            `yaml:"csvPath"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ObjectStoreConfig targets an S3 compatible bucket such as R2 or MinIO.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSSL"`
	Prefix    string `yaml:"prefix"`
}

// Load reads configuration from a YAML file, an optional .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(envOr("DOTENV_PATH", ".env")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv("HTTP_ADDRESS") == "" {
		cfg.HTTP.Address = ":" + v
	}
	if v := os.Getenv("HTTP_STATIC_DIR"); v != "" {
		cfg.HTTP.StaticDir = v
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")

	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("MODEL_ENDPOINT"); v != "" {
		cfg.Model.Endpoint = v
	}
	setDuration(&cfg.Model.Timeout, "MODEL_TIMEOUT")

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if cfg.LLM.APIKey == "" {
		if name := providerKeyEnv(cfg.LLM.Provider); name != "" {
			cfg.LLM.APIKey = os.Getenv(name)
		}
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	setInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS")
	setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT")
	if v := os.Getenv("LLM_PERSONA"); v != "" {
		cfg.LLM.Persona = v
	}

	setBool(&cfg.ExplanationCache.Enabled, "EXPLANATION_CACHE_ENABLED")
	setDuration(&cfg.ExplanationCache.TTL, "EXPLANATION_CACHE_TTL")
	setInt(&cfg.ExplanationCache.MaxEntries, "EXPLANATION_CACHE_MAX_ENTRIES")
	setBool(&cfg.ExplanationCache.Redis.Enabled, "EXPLANATION_CACHE_REDIS_ENABLED")
	if v := os.Getenv("EXPLANATION_CACHE_REDIS_ADDR"); v != "" {
		cfg.ExplanationCache.Redis.Addr = v
	}

	setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
	if v := os.Getenv("METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	if v := os.Getenv("SCRAPER_API_URL"); v != "" {
		cfg.Scraper.APIURL = v
	}
	setDuration(&cfg.Scraper.Timeout, "SCRAPER_TIMEOUT")
	if v := os.Getenv("SCRAPER_SINKS"); v != "" {
		cfg.Scraper.Sinks = splitList(v)
	}
	if v := os.Getenv("SCRAPER_CSV_PATH"); v != "" {
		cfg.Scraper.CSVPath = v
	}
	if v := os.Getenv("SCRAPER_POSTGRES_DSN"); v != "" {
		cfg.Scraper.Postgres.DSN = v
	}
	if v := os.Getenv("SCRAPER_OBJECTSTORE_ENDPOINT"); v != "" {
		cfg.Scraper.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("SCRAPER_OBJECTSTORE_ACCESS_KEY"); v != "" {
		cfg.Scraper.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("SCRAPER_OBJECTSTORE_SECRET_KEY"); v != "" {
		cfg.Scraper.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("SCRAPER_OBJECTSTORE_BUCKET"); v != "" {
		cfg.Scraper.ObjectStore.Bucket = v
	}
}

func providerKeyEnv(provider string) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

func setBool(dst *bool, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setInt(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, name string) {
	if v := os.Getenv(name); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":5000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 20 * time.Second,
			CORSOrigins:  []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Model: ModelConfig{
			Path:    "models/price_model.json",
			Timeout: 5 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-2.0-flash",
			Temperature: 0.2,
			MaxTokens:   256,
			Timeout:     8 * time.Second,
			Persona:     "You are an e-commerce pricing analyst.",
		},
		ExplanationCache: ExplanationCacheConfig{
			Enabled:    true,
			TTL:        time.Hour,
			MaxEntries: 1024,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Scraper: ScraperConfig{
			APIURL:  "https://fakestoreapi.com/products",
			Timeout: 30 * time.Second,
			Sinks:   []string{"csv"},
			CSVPath: "products.csv",
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
			ObjectStore: ObjectStoreConfig{
				Region: "auto",
				UseSSL: true,
				Prefix: "products",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Model.Path) == "" && strings.TrimSpace(c.Model.Endpoint) == "" {
		return errors.New("model.path or model.endpoint must be set")
	}
	if c.Model.Timeout < 0 {
		return errors.New("model.timeout cannot be negative")
	}
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderNone:
	default:
		return fmt.Errorf("llm.provider %q is not one of gemini, openai, anthropic, none", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	if c.LLM.MaxTokens < 0 {
		return errors.New("llm.maxTokens cannot be negative")
	}
	if c.HTTP.WriteTimeout > 0 && c.HTTP.WriteTimeout <= c.LLM.Timeout {
		return errors.New("http.writeTimeout must exceed llm.timeout")
	}
	if c.ExplanationCache.TTL < 0 {
		return errors.New("explanationCache.ttl cannot be negative")
	}
	if c.ExplanationCache.Redis.Enabled && strings.TrimSpace(c.ExplanationCache.Redis.Addr) == "" {
		return errors.New("explanationCache.redis.addr cannot be empty when redis cache is enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}
