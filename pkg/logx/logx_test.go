package logx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-pkgz/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestChain_RequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	lg := slog.New(&Chain{
		Middleware: []Middleware{RequestID},
		Handler:    slog.HandlerOptions{}.NewTextHandler(buf),
	}).With(slog.String("prefix", "test"))

	lg.InfoCtx(ContextWithRequestID(context.Background(), "req-1"), "hello")
	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), "prefix=test")

	buf.Reset()
	lg.Info("no request id")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestNoOp(t *testing.T) {
	h := NoOp()
	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
	assert.NoError(t, h.Handle(context.Background(), slog.Record{}))
	assert.Equal(t, h, h.WithGroup("g").WithAttrs(nil))
}

func TestLoggingRoundTripper(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "ping", string(body))
		w.Header().Set("X-Secret", "s3cr3t-value")
		_, _ = w.Write([]byte(strings.Repeat("a", DefaultBodyLimit+10)))
	}))
	defer ts.Close()

	buf := &bytes.Buffer{}
	lg := slog.New(slog.HandlerOptions{Level: slog.LevelDebug}.NewTextHandler(buf))

	rq := requester.New(http.Client{}, LoggingRoundTripper(lg, RoundTripperOpts{
		Level:         slog.LevelDebug,
		SecretHeaders: []string{"Authorization", "X-Secret"},
	}))

	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader("ping"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")

	resp, err := rq.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// body is still readable in full after logging
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, body, DefaultBodyLimit+10)

	out := buf.String()
	assert.Contains(t, out, "request sent")
	assert.Contains(t, out, "response received")
	assert.Contains(t, out, "body=ping")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "Bearer token")
	assert.NotContains(t, out, "s3cr3t-value")
}

func TestLoggingRoundTripper_Disabled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer ts.Close()

	buf := &bytes.Buffer{}
	lg := slog.New(slog.HandlerOptions{Level: slog.LevelInfo}.NewTextHandler(buf))

	rq := requester.New(http.Client{}, LoggingRoundTripper(lg, RoundTripperOpts{Level: slog.LevelDebug}))

	req, err := http.NewRequest(http.MethodGet, ts.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := rq.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
	assert.Empty(t, buf.String())
}

func TestLoggingRoundTripper_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	lg := slog.New(slog.HandlerOptions{}.NewTextHandler(buf))

	rq := requester.New(http.Client{}, LoggingRoundTripper(lg, RoundTripperOpts{Level: slog.LevelInfo}))

	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", http.NoBody)
	require.NoError(t, err)

	_, err = rq.Do(req)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "request failed")
}
