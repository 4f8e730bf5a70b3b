// Package ai provides single-shot text completion backends for the intent
// resolver. Each backend satisfies agent.Completer; the resolver treats any
// failure the same as unparseable output and falls back deterministically.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/techchamps/repoagent/internal/transport"
)

const completionMaxTokens = 1024

// AnthropicCompleter completes prompts with the Anthropic Messages API.
type AnthropicCompleter struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicCompleter(apiKey string, model string) *AnthropicCompleter {
	rateLimitedHTTPClient := &http.Client{
		Transport: transport.WithRateLimiting(nil),
	}
	client := anthropic.NewClient(
		option.WithHTTPClient(rateLimitedHTTPClient),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(2),
	)
	m := anthropic.Model(model)
	if m == "" {
		m = anthropic.ModelClaudeSonnet4_0
	}
	return &AnthropicCompleter{client: client, model: m}
}

func (ac *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	response, err := ac.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     ac.model,
		MaxTokens: completionMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	var b strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic completion returned no text content")
	}
	return b.String(), nil
}
