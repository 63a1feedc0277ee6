package chatgpt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
)

// Generator adapts the client to pricing.TextGenerator.
type Generator struct {
	client      *Client
	model       string
	temperature float32
	maxTokens   int
}

// NewGenerator constructs the adapter.
func NewGenerator(client *Client, model string, temperature float32, maxTokens int) *Generator {
	return &Generator{client: client, model: model, temperature: temperature, maxTokens: maxTokens}
}

// Generate sends the prompt as a single user message and returns the first choice.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages:    []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", pricing.ErrRateLimited, err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ pricing.TextGenerator = (*Generator)(nil)
