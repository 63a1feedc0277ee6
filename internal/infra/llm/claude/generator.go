package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 256
)

// Messager is the slice of the SDK client used here.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Generator implements pricing.TextGenerator on the Messages API.
type Generator struct {
	messages    Messager
	model       string
	temperature float64
	maxTokens   int64
}

// NewGenerator builds a generator backed by the official SDK.
func NewGenerator(apiKey, model string, temperature float64, maxTokens int) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic api key cannot be empty")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newGenerator(&client.Messages, model, temperature, maxTokens), nil
}

func newGenerator(messages Messager, model string, temperature float64, maxTokens int) *Generator {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Generator{
		messages:    messages,
		model:       model,
		temperature: temperature,
		maxTokens:   int64(maxTokens),
	}
}

// Generate sends the prompt as one user turn and joins the text blocks of the reply.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   g.maxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(g.temperature),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("anthropic status %d: %w", apiErr.StatusCode, pricing.ErrRateLimited)
		}
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

var _ pricing.TextGenerator = (*Generator)(nil)
