package claude

import (
	"context"
	"errors"
	"net/http"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
)

type mockMessager struct {
	response *anthropic.Message
	err      error
	params   anthropic.MessageNewParams
}

func (m *mockMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	m.params = params
	return m.response, m.err
}

func TestGenerateJoinsTextBlocks(t *testing.T) {
	mock := &mockMessager{response: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "Price is above peers. "},
			{Type: "tool_use"},
			{Type: "text", Text: "Action: review reviews count."},
		},
	}}
	gen := newGenerator(mock, "", 0.3, 0)

	text, err := gen.Generate(context.Background(), "explain")
	require.NoError(t, err)
	require.Equal(t, "Price is above peers. Action: review reviews count.", text)
	require.Equal(t, anthropic.Model(defaultModel), mock.params.Model)
	require.Equal(t, int64(defaultMaxTokens), mock.params.MaxTokens)
	require.Len(t, mock.params.Messages, 1)
}

func TestGenerateEmptyContent(t *testing.T) {
	gen := newGenerator(&mockMessager{response: &anthropic.Message{}}, "claude-x", 0, 64)

	text, err := gen.Generate(context.Background(), "explain")
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestGenerateRateLimited(t *testing.T) {
	gen := newGenerator(&mockMessager{err: &anthropic.Error{StatusCode: http.StatusTooManyRequests}}, "", 0, 0)

	_, err := gen.Generate(context.Background(), "explain")
	require.ErrorIs(t, err, pricing.ErrRateLimited)
}

func TestGeneratePassesOtherErrors(t *testing.T) {
	gen := newGenerator(&mockMessager{err: errors.New("dial tcp: connection refused")}, "", 0, 0)

	_, err := gen.Generate(context.Background(), "explain")
	require.EqualError(t, err, "dial tcp: connection refused")
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator("", "", 0, 0)
	require.Error(t, err)
}
