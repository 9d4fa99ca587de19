// Package botmw provides middlewares for bot handler.
package botmw

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Semior001/feedcache/pkg/botx"
	"golang.org/x/exp/slog"
)

// Logger is a middleware that logs all requests. Request texts are
// logged only at debug level, as they may contain tokens.
func Logger(lg *slog.Logger) botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
			verbose := lg.Handler().Enabled(ctx, slog.LevelDebug)

			attrs := []slog.Attr{
				slog.String("chat_id", req.Chat.ID),
				slog.String("chat_username", req.Chat.Username),
				slog.String("command", command(req.Text)),
			}
			if verbose {
				attrs = append(attrs, slog.String("text", req.Text))
			}
			lg.LogAttrs(ctx, slog.LevelInfo, "request received", attrs...)

			start := time.Now()
			resps, err := next(ctx, req)

			attrs = []slog.Attr{
				slog.Int("responses", len(resps)),
				slog.Duration("elapsed", time.Since(start)),
			}
			if verbose {
				attrs = append(attrs, slog.Any("responses_content", resps))
			}
			if err != nil {
				attrs = append(attrs, slog.Any("err", err))
			}
			lg.LogAttrs(ctx, slog.LevelInfo, "request processed", attrs...)

			return resps, err
		}
	}
}

// Recover is a middleware that turns panics of the handler into errors.
func Recover(lg *slog.Logger) botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) (resps []botx.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					lg.ErrorCtx(ctx, "panic recovered",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())))
					resps, err = nil, fmt.Errorf("panic: %v", r)
				}
			}()

			return next(ctx, req)
		}
	}
}

func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	return fields[0]
}
