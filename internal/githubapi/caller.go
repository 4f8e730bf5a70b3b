// Package githubapi implements the generic GitHub REST caller the agent
// executor dispatches resolved operations through.
package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/techchamps/repoagent/internal/agent"
	"github.com/techchamps/repoagent/internal/transport"
)

const defaultBaseURL = "https://api.github.com"

// Caller performs one HTTP call per invocation against the GitHub REST API.
// Rate-limit waits are handled by the underlying round tripper; there is no
// application-level retry.
type Caller struct {
	baseURL string
	client  *http.Client
}

type Option func(*Caller)

// WithBaseURL overrides the API base URL, e.g. for GitHub Enterprise or test
// servers.
func WithBaseURL(baseURL string) Option {
	return func(c *Caller) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Caller) {
		c.client = client
	}
}

func NewCaller(opts ...Option) *Caller {
	c := &Caller{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Transport: transport.WithRateLimiting(nil),
			Timeout:   30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call executes a single request. A returned error means the request did not
// complete; remote rejections come back as a RemoteResponse with the raw
// status and body for the executor to categorize.
func (c *Caller) Call(ctx context.Context, verb agent.Verb, path string, headers map[string]string, body any) (*agent.RemoteResponse, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, string(verb), c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &agent.RemoteResponse{Status: resp.StatusCode, Body: respBody}, nil
}
