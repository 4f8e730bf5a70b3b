package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip_PassesThroughSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := &http.Client{Transport: WithRateLimiting(nil)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoundTrip_RetriesAfterRateLimit(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: WithRateLimiting(nil)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(2), attempts.Load())
}

func TestRoundTrip_ReplaysBodyOnRetry(t *testing.T) {
	var attempts atomic.Int32
	bodies := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := &http.Client{Transport: WithRateLimiting(nil)}
	resp, err := client.Post(srv.URL, "application/json", strings.NewReader(`{"title":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, `{"title":"x"}`, <-bodies)
	require.Equal(t, `{"title":"x"}`, <-bodies, "retried request carries the same body")
}

func TestRoundTrip_ContextCancelledDuringWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	client := &http.Client{Transport: WithRateLimiting(nil)}
	_, err = client.Do(req) //nolint:bodyclose // the request errors out before a body exists
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRoundTrip_ExcessiveWaitSurfacesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Far beyond the wait cap, so the throttled response comes back as-is
		w.Header().Set("Retry-After", "3600")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := &http.Client{Transport: WithRateLimiting(nil)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestThrottleWait_Headers(t *testing.T) {
	makeResp := func(status int, headers map[string]string) *http.Response {
		resp := &http.Response{StatusCode: status, Header: http.Header{}}
		for k, v := range headers {
			resp.Header.Set(k, v)
		}
		return resp
	}

	wait, throttled := throttleWait(makeResp(http.StatusTooManyRequests, map[string]string{"Retry-After": "5"}))
	require.True(t, throttled)
	require.Equal(t, 5*time.Second, wait)

	_, throttled = throttleWait(makeResp(http.StatusForbidden, map[string]string{"Retry-After": "1"}))
	require.True(t, throttled, "secondary limits arrive as 403")

	_, throttled = throttleWait(makeResp(http.StatusOK, nil))
	require.False(t, throttled)

	_, throttled = throttleWait(makeResp(http.StatusForbidden, nil))
	require.False(t, throttled, "a plain 403 is not a rate limit")

	wait, throttled = throttleWait(makeResp(http.StatusForbidden, map[string]string{
		"X-RateLimit-Remaining": "0",
		"X-RateLimit-Reset":     "253402300799", // far future
	}))
	require.True(t, throttled)
	require.Greater(t, wait, time.Hour)
}
