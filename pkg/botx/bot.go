// Package botx provides interfaces and types to handle bot updates,
// with a chi-like router of commands.
package botx

import (
	"context"
	"sync"

	"github.com/Semior001/feedcache/pkg/logx"
	"golang.org/x/exp/slog"
)

//go:generate moq -out mock_api.go . API

// API defines methods for an API interface to receive and send chat messages.
type API interface {
	Updates() <-chan Request
	SendMessage(ctx context.Context, resp Response) error
}

// Bot defines parameters for running a bot over some API.
type Bot struct {
	h   Handler
	api API
	Options
}

// NewBot creates a new Bot.
func NewBot(h Handler, api API, opts ...Option) *Bot {
	options := Options{
		Workers: 1,
		Logger:  slog.New(logx.NoOp()),
	}

	for _, opt := range opts {
		opt(&options)
	}

	return &Bot{
		h:       h,
		api:     api,
		Options: options,
	}
}

// Run starts updates listener. It returns when the context is done
// or the updates channel is closed.
func (b *Bot) Run(ctx context.Context) {
	updates := b.api.Updates()

	wg := &sync.WaitGroup{}
	wg.Add(b.Workers)

	for i := 0; i < b.Workers; i++ {
		go func(idx int) {
			defer wg.Done()
			b.Logger.DebugCtx(ctx, "worker started", slog.Int("worker", idx))

			for {
				select {
				case <-ctx.Done():
					return
				case req, ok := <-updates:
					if !ok {
						return
					}
					b.handleUpdate(ctx, req)
				}
			}
		}(i)
	}

	wg.Wait()
	b.Logger.InfoCtx(ctx, "all workers stopped")
}

func (b *Bot) handleUpdate(ctx context.Context, req Request) {
	resps, err := b.h(ctx, req)
	if err != nil {
		b.Logger.ErrorCtx(ctx, "failed to handle request",
			slog.String("chat_id", req.Chat.ID), slog.Any("err", err))
	}

	for _, resp := range resps {
		if err := b.send(ctx, resp); err != nil {
			b.Logger.WarnCtx(ctx, "failed to send message",
				slog.String("chat_id", resp.ChatID), slog.Any("err", err))
		}
	}
}

func (b *Bot) send(ctx context.Context, resp Response) error {
	if b.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.SendTimeout)
		defer cancel()
	}
	return b.api.SendMessage(ctx, resp)
}
