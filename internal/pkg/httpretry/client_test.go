package httpretry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), 3).WithBackoff(time.Millisecond, 5*time.Millisecond)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/bot123:abc/sendMessage", strings.NewReader(`{"chat_id":1}`))
	require.NoError(t, err)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestDo_DoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), 3).WithBackoff(time.Millisecond, 5*time.Millisecond)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestDo_FinalAttemptReturnsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), 2).WithBackoff(time.Millisecond, 2*time.Millisecond)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDo_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc := NewRetryClient(srv.Client(), 3)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)

	_, err := rc.Do(req)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestRedactPath(t *testing.T) {
	assert.Equal(t, "/bot***/sendMessage", redactPath("/bot123:abc/sendMessage"))
	assert.Equal(t, "/file/bot***/documents/a.txt", redactPath("/file/bot123:abc/documents/a.txt"))
	assert.Equal(t, "/healthz", redactPath("/healthz"))
}

func TestDo_FloodWaitFromBody(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	// The 7s hint is capped by the 20ms ceiling.
	rc := NewRetryClient(srv.Client(), 1).WithBackoff(time.Millisecond, 20*time.Millisecond)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	start := time.Now()
	resp, err := rc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFloodWait(t *testing.T) {
	body := `{"ok":false,"parameters":{"retry_after":3}}`
	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"9"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	assert.Equal(t, 3*time.Second, floodWait(resp))

	rest, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(rest), "body stays readable")

	resp = &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"9"}},
		Body:       io.NopCloser(strings.NewReader("rate limited")),
	}
	assert.Equal(t, 9*time.Second, floodWait(resp))

	resp = &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader(""))}
	assert.Zero(t, floodWait(resp))
}

func TestRetryable(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, retryable(code), code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 409, 501} {
		assert.False(t, retryable(code), code)
	}
}

func TestBackoffBounds(t *testing.T) {
	rc := NewRetryClient(nil, 3).WithBackoff(200*time.Millisecond, time.Second)
	for attempt := 1; attempt <= 10; attempt++ {
		d := rc.backoff(attempt)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, time.Second)
	}
}
