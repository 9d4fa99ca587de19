package botmw

import (
	"context"
	"fmt"

	"github.com/Semior001/feedcache/pkg/botx"
	"github.com/Semior001/feedcache/pkg/logx"
	"github.com/google/uuid"
)

// RequestID is a middleware that adds request id to context,
// unless the context already has one.
func RequestID() botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
			if _, ok := logx.RequestIDFromContext(ctx); !ok {
				ctx = logx.ContextWithRequestID(ctx, uuid.NewString())
			}

			return next(ctx, req)
		}
	}
}

// AppendRequestIDOnError is a middleware that adds request id to the
// responses of a failed handler, so that the user could report it.
// If the handler didn't answer the requester, a generic reply is added.
func AppendRequestIDOnError() botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
			resps, err := next(ctx, req)
			if err == nil {
				return resps, nil
			}

			reqID, _ := logx.RequestIDFromContext(ctx)
			footer := fmt.Sprintf("\n\nRequest ID: `%s`", reqID)

			answered := false
			for i := range resps {
				if resps[i].ChatID != req.Chat.ID {
					continue
				}
				resps[i].Text += footer
				answered = true
			}

			if !answered {
				resps = append(resps, botx.Response{
					ReplyToMessageID: req.MessageID,
					ChatID:           req.Chat.ID,
					Text:             "Something went wrong. Please, ask admin for help." + footer,
				})
			}

			return resps, err
		}
	}
}
