// Package httpretry wraps an HTTP client with the retry rules of the Bot
// API: back off on 5xx and network errors, and honor flood-control waits
// on 429.
package httpretry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/vcfbot/internal/pkg/logger"
)

const (
	defaultRetries = 3
	// floodPeek bounds how much of a 429 body is read for retry_after.
	floodPeek = 4 << 10
)

// HTTPDoer is the interface for executing HTTP requests.
// Both *http.Client and *RetryClient satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient retries transient Bot API failures with capped exponential
// backoff and full jitter.
type RetryClient struct {
	client     HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryClient wraps client; a nil client gets a 30s-timeout default.
// maxRetries counts attempts after the first and defaults to 3.
func NewRetryClient(client HTTPDoer, maxRetries int) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = defaultRetries
	}
	return &RetryClient{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
	}
}

// WithBackoff overrides the backoff bounds.
func (rc *RetryClient) WithBackoff(base, ceiling time.Duration) *RetryClient {
	rc.baseDelay = base
	rc.maxDelay = ceiling
	return rc
}

// Do sends req, retrying on network errors, 429 and 5xx other than 501.
// A 429 waits for the server's flood-control hint (the retry_after field
// of the Bot API error body, else the Retry-After header) capped at the
// maximum delay. The last response is returned as-is so callers can read
// the error body. Request bodies are replayed through GetBody.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var (
		lastErr error
		hint    time.Duration
	)
	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if attempt > 0 {
			if err := rewind(req); err != nil {
				return nil, err
			}
			wait := rc.backoff(attempt)
			if hint > 0 {
				wait = min(hint, rc.maxDelay)
			}
			logger.Warn("bot api retry",
				"attempt", attempt, "of", rc.maxRetries, "path", redactPath(req.URL.Path), "wait", wait, "cause", lastErr)

			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr, hint = err, 0
			continue
		}
		if !retryable(resp.StatusCode) || attempt == rc.maxRetries {
			return resp, nil
		}

		hint = floodWait(resp)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil, fmt.Errorf("httpretry: %d attempts failed: %w", rc.maxRetries+1, lastErr)
}

func rewind(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("httpretry: reset request body: %w", err)
	}
	req.Body = body
	return nil
}

// backoff returns a random delay in [floor, min(maxDelay, base*2^(attempt-1))].
func (rc *RetryClient) backoff(attempt int) time.Duration {
	ceiling := rc.maxDelay
	if shift := attempt - 1; shift < 31 {
		if d := rc.baseDelay << shift; d > 0 && d < ceiling {
			ceiling = d
		}
	}
	d := time.Duration(rand.Int63n(int64(ceiling) + 1))
	if floor := min(100*time.Millisecond, rc.baseDelay); d < floor {
		d = floor
	}
	return d
}

// floodWait reads the wait a 429 asks for. The body is restored so the
// response can still be returned on the last attempt.
func floodWait(resp *http.Response) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests {
		return 0
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, floodPeek))
	resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), resp.Body))

	var env struct {
		Parameters struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Parameters.RetryAfter > 0 {
		return time.Duration(env.Parameters.RetryAfter) * time.Second
	}
	return parseRetryAfter(resp.Header.Get("Retry-After"))
}

// parseRetryAfter reads a delay-seconds Retry-After value.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// redactPath hides the bot token embedded in Bot API paths
// ("/bot<token>/sendMessage", "/file/bot<token>/...").
func redactPath(p string) string {
	const marker = "/bot"
	i := strings.Index(p, marker)
	if i < 0 {
		return p
	}
	rest := p[i+len(marker):]
	j := strings.IndexByte(rest, '/')
	if j < 0 {
		return p[:i] + marker + "***"
	}
	return p[:i] + marker + "***" + rest[j:]
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests ||
		(code >= 500 && code != http.StatusNotImplemented)
}
