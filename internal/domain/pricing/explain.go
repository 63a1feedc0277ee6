package pricing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	noAnomalyText     = "No anomaly detected."
	quotaFallbackText = "AI quota exceeded or unavailable. No anomaly detected."
	defaultPersona    = "You are an e-commerce pricing analyst."
	defaultTimeout    = 8 * time.Second
)

// Explanation outcomes reported to the Recorder.
const (
	ExplanationGenerated   = "generated"
	ExplanationCached      = "cached"
	ExplanationEmpty       = "empty"
	ExplanationRateLimited = "rate_limited"
	ExplanationUnavailable = "unavailable"
	ExplanationDisabled    = "disabled"
)

// ErrRateLimited is wrapped by text generators when the provider reports quota exhaustion.
var ErrRateLimited = errors.New("text generation rate limited")

var errGenerationDisabled = errors.New("text generation disabled")

// TextGenerator turns a prompt into text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ExplanationCache stores generated explanations keyed by prompt digest.
type ExplanationCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, text string, ttl time.Duration) error
}

// Explainer produces the optional natural-language analysis. It never fails: every error
// degrades to a fallback sentence.
type Explainer struct {
	cfg       ExplainerConfig
	generator TextGenerator
	cache     ExplanationCache
	recorder  Recorder
	logger    *slog.Logger
}

// NewExplainer builds the adapter. generator and cache may be nil.
func NewExplainer(cfg ExplainerConfig, generator TextGenerator, cache ExplanationCache, recorder Recorder, logger *slog.Logger) *Explainer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if strings.TrimSpace(cfg.Persona) == "" {
		cfg.Persona = defaultPersona
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Explainer{
		cfg:       cfg,
		generator: generator,
		cache:     cache,
		recorder:  recorder,
		logger:    logger.With("component", "pricing.explainer"),
	}
}

// Explain returns a short analysis of the prediction.
func (e *Explainer) Explain(ctx context.Context, fv FeatureVector, prediction float64, in RawInput) string {
	if e.generator == nil {
		e.recorder.ObserveExplanation(ExplanationDisabled)
		return unavailableText(errGenerationDisabled)
	}

	prompt := e.buildPrompt(fv, prediction, in)
	key := promptKey(prompt)
	if cached, ok := e.lookup(ctx, key); ok {
		e.recorder.ObserveExplanation(ExplanationCached)
		return cached
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	text, err := e.generator.Generate(callCtx, prompt)
	if err != nil {
		if isRateLimited(err) {
			e.logger.Warn("text generation rate limited", "error", err)
			e.recorder.ObserveExplanation(ExplanationRateLimited)
			return quotaFallbackText
		}
		e.logger.Warn("text generation failed", "error", err)
		e.recorder.ObserveExplanation(ExplanationUnavailable)
		return unavailableText(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		e.recorder.ObserveExplanation(ExplanationEmpty)
		return noAnomalyText
	}
	e.recorder.ObserveExplanation(ExplanationGenerated)
	e.store(ctx, key, text)
	return text
}

func (e *Explainer) lookup(ctx context.Context, key string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	text, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("explanation cache lookup failed", "error", err)
		return "", false
	}
	return text, ok
}

func (e *Explainer) store(ctx context.Context, key, text string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, text, e.cfg.CacheTTL); err != nil {
		e.logger.Warn("explanation cache save failed", "error", err)
	}
}

func (e *Explainer) buildPrompt(fv FeatureVector, prediction float64, in RawInput) string {
	raw := "{}"
	if data, err := json.Marshal(in); err == nil {
		raw = string(data)
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(e.cfg.Persona))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Product (raw form data): %s\n", raw)
	fmt.Fprintf(&b, "Model numeric features: %s\n", fv)
	fmt.Fprintf(&b, "Predicted price: %s\n", strconv.FormatFloat(round2(prediction), 'f', -1, 64))
	b.WriteString("Explain potential anomalies or risks in 2-3 concise lines with 1 action item. ")
	b.WriteString("If nothing stands out, reply: '" + noAnomalyText + "'")
	return b.String()
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func isRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota")
}

func unavailableText(err error) string {
	return fmt.Sprintf("LLM unavailable: %v. %s", err, noAnomalyText)
}
