// Package transport provides a rate-limit-aware HTTP round tripper shared by
// the GitHub REST caller and the model completion clients.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// maxRateLimitWait caps how long a single request will sleep on a rate limit
// before giving up and surfacing the throttled response to the caller.
const maxRateLimitWait = 2 * time.Minute

type RateLimitedTransport struct {
	base http.RoundTripper
}

func WithRateLimiting(base http.RoundTripper) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitedTransport{base: base}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Buffer the request body so throttled requests can be replayed
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if err := req.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return resp, err
		}

		wait, throttled := throttleWait(resp)
		if !throttled || wait <= 0 || wait > maxRateLimitWait {
			return resp, nil
		}

		if err := resp.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close throttled response body: %w", err)
		}

		log.Printf("Rate limited by %s, waiting %s", req.URL.Host, wait)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// throttleWait reports whether the response is a rate-limit rejection and how
// long to wait before retrying. GitHub signals primary limits with
// X-RateLimit-Remaining: 0 plus a reset epoch, and secondary limits (like
// Anthropic) with Retry-After on a 403 or 429.
func throttleWait(resp *http.Response) (time.Duration, bool) {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusForbidden {
		return 0, false
	}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			return time.Duration(seconds) * time.Second, true
		}
		if retryTime, err := time.Parse(time.RFC1123, retryAfter); err == nil {
			return time.Until(retryTime), true
		}
	}

	if resp.Header.Get("X-RateLimit-Remaining") == "0" {
		if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			return time.Until(time.Unix(reset, 0)), true
		}
	}

	return 0, false
}
