package logx

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/requester/middleware"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

// DefaultBodyLimit is the amount of body bytes put into the log by default.
const DefaultBodyLimit = 1024

// RoundTripperOpts contains options for client logger.
type RoundTripperOpts struct {
	Level         slog.Level
	SecretHeaders []string
	// BodyLimit is the amount of body bytes to log, negative disables
	// body logging, zero means DefaultBodyLimit.
	BodyLimit int
}

// LoggingRoundTripper logs every client request and its response.
// Bodies are read only if the level is enabled and stay readable for
// the caller.
func LoggingRoundTripper(lg *slog.Logger, opts RoundTripperOpts) middleware.RoundTripperHandler {
	if opts.BodyLimit == 0 {
		opts.BodyLimit = DefaultBodyLimit
	}

	secret := lo.Map(opts.SecretHeaders, func(h string, _ int) string { return http.CanonicalHeaderKey(h) })

	headers := func(h http.Header) slog.Attr {
		res := make(map[string]string, len(h))
		for k, vals := range h {
			res[k] = strings.Join(vals, ",")
			if lo.Contains(secret, k) {
				res[k] = "***"
			}
		}
		return slog.Any("headers", res)
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			if !lg.Enabled(ctx, opts.Level) {
				return next.RoundTrip(req)
			}

			reqAttrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				headers(req.Header),
			}
			if opts.BodyLimit > 0 && req.Body != nil && req.Body != http.NoBody {
				var body string
				req.Body, body = peek(req.Body, opts.BodyLimit)
				reqAttrs = append(reqAttrs, slog.String("body", body))
			}
			lg.LogAttrs(ctx, opts.Level, "request sent", reqAttrs...)

			start := time.Now()
			resp, err := next.RoundTrip(req)
			elapsed := time.Since(start)

			if err != nil {
				lg.LogAttrs(ctx, opts.Level, "request failed",
					slog.String("url", req.URL.String()),
					slog.Duration("elapsed", elapsed),
					slog.Any("err", err))
				return resp, err
			}

			respAttrs := []slog.Attr{
				slog.String("url", req.URL.String()),
				slog.Int("status", resp.StatusCode),
				headers(resp.Header),
			}
			if opts.BodyLimit > 0 && resp.Body != nil {
				var body string
				resp.Body, body = peek(resp.Body, opts.BodyLimit)
				respAttrs = append(respAttrs, slog.String("body", body))
			}
			respAttrs = append(respAttrs, slog.Duration("elapsed", elapsed))
			lg.LogAttrs(ctx, opts.Level, "response received", respAttrs...)

			return resp, nil
		})
	}
}

// peek reads up to limit bytes of the body for the log and returns
// the body that yields the full content again.
func peek(body io.ReadCloser, limit int) (io.ReadCloser, string) {
	buf := &bytes.Buffer{}
	n, err := io.CopyN(buf, body, int64(limit)+1)

	snippet := buf.String()
	if n > int64(limit) {
		snippet = snippet[:limit] + "..."
	}
	snippet = strings.Join(strings.Fields(snippet), " ")

	if err != nil {
		// body is exhausted
		_ = body.Close()
		return io.NopCloser(bytes.NewReader(buf.Bytes())), snippet
	}

	return struct {
		io.Reader
		io.Closer
	}{Reader: io.MultiReader(buf, body), Closer: body}, snippet
}
