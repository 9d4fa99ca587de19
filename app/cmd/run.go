// Package cmd contains commands for the application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Semior001/feedcache/app/bot"
	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/pkg/botx"
	"github.com/Semior001/feedcache/pkg/botx/botapi"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Run is a command to run the bot.
type Run struct {
	Bot struct {
		Timeout     time.Duration `long:"timeout" env:"TIMEOUT" default:"1m" description:"timeout for requests"`
		Workers     int           `long:"workers" env:"WORKERS" default:"10" description:"number of workers handling updates"`
		SendTimeout time.Duration `long:"send-timeout" env:"SEND_TIMEOUT" default:"10s" description:"timeout for sending a single response"`

		Telegram struct {
			Token string `long:"token" env:"TOKEN" description:"telegram token"`
		} `group:"telegram" namespace:"telegram" env-namespace:"TELEGRAM"`

		AdminIDs  []string `long:"admin-ids" env:"ADMIN_IDS" env-delim:"," description:"admin IDs"`
		AuthToken string   `long:"auth-token" env:"AUTH_TOKEN" description:"token for authorizing requests"`

		DefaultCategory string `long:"default-category" env:"DEFAULT_CATEGORY" default:"all" description:"category shown when none is requested"`
		PageSize        int    `long:"page-size" env:"PAGE_SIZE" default:"10" description:"articles shown in a single message"`

		Notify struct {
			Categories  []string      `long:"category" env:"CATEGORIES" env-delim:"," description:"categories to notify subscribers about, all if empty"`
			MaxArticles int           `long:"max-articles" env:"MAX_ARTICLES" default:"5" description:"max articles in a single notification"`
			Timeout     time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"timeout for sending a notification"`
		} `group:"notify" namespace:"notify" env-namespace:"NOTIFY"`
	} `group:"bot" namespace:"bot" env-namespace:"BOT"`

	Source SourceGroup `group:"source" namespace:"source" env-namespace:"SOURCE"`
	Feed   FeedGroup   `group:"feed" namespace:"feed" env-namespace:"FEED"`
	Store  StoreGroup  `group:"store" namespace:"store" env-namespace:"STORE"`
}

// Execute runs the command.
func (r Run) Execute(_ []string) error {
	lg := slog.Default()

	fetcher, enricher, err := r.Source.Fetcher(lg)
	if err != nil {
		return fmt.Errorf("make fetcher: %w", err)
	}

	s, err := r.Store.Open()
	if err != nil {
		return fmt.Errorf("make store: %w", err)
	}

	defer func() {
		if err := s.Close(); err != nil {
			lg.Error("close store", slog.Any("err", err))
		}
	}()

	api, err := botapi.NewTelegram(
		lg.With(slog.String("prefix", "telegram")),
		r.Bot.Telegram.Token,
		100,
	)
	if err != nil {
		return fmt.Errorf("make telegram controller: %w", err)
	}

	if err = api.SetCommands(bot.Commands); err != nil {
		lg.Warn("failed to set bot commands", slog.Any("err", err))
	}

	notifier := &bot.Notifier{
		Logger:      lg.With(slog.String("prefix", "notifier")),
		Store:       s,
		API:         api,
		Categories:  r.Bot.Notify.Categories,
		MaxArticles: r.Bot.Notify.MaxArticles,
		Timeout:     r.Bot.Notify.Timeout,
	}

	mgr := feed.NewManager(fetcher, append(r.Feed.Options(),
		feed.WithLogger(lg.With(slog.String("prefix", "feed"))),
		feed.WithPersister(s),
		feed.WithMergeHook(notifier.OnMerge),
	)...)

	mgr.Hydrate(context.Background())
	mgr.StartAll()
	defer mgr.Close()

	ctrl := &bot.Ctrl{
		Logger:          lg.With(slog.String("prefix", "bot")),
		Store:           s,
		Feeds:           mgr,
		API:             api,
		AdminIDs:        r.Bot.AdminIDs,
		AuthToken:       r.Bot.AuthToken,
		HandlerTimeout:  r.Bot.Timeout,
		DefaultCategory: r.Bot.DefaultCategory,
		PageSize:        r.Bot.PageSize,
		AllowClients:    r.Source.Type == "api",
	}
	if enricher != nil {
		ctrl.Enricher = enricher
	}

	b := botx.NewBot(
		ctrl.Routes().Handle,
		api,
		botx.WithLogger(lg.With(slog.String("prefix", "botx"))),
		botx.WithWorkers(r.Bot.Workers),
		botx.WithSendTimeout(r.Bot.SendTimeout),
	)

	startMsg := fmt.Sprintf("bot started, categories: %s", strings.Join(r.Feed.Categories, ", "))
	if err := ctrl.NotifyAdmins(context.Background(), startMsg); err != nil {
		return fmt.Errorf("notify admins about started bot: %w", err)
	}

	ctx, stop := context.WithCancel(context.Background())

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case sig := <-sig:
			slog.Warn("caught signal, stopping", slog.String("signal", sig.String()))
			stop()
			return ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	ewg.Go(func() error {
		lg.Info("starting bot")
		b.Run(ctx)
		lg.Warn("bot stopped")
		return nil
	})

	// we should run api out of errgroup, because it lives longer than the context,
	// as we want to notify admins about bot stopping
	apiStopped := make(chan struct{})
	go func() {
		lg.Info("starting telegram api")
		api.Run()
		lg.Warn("telegram api stopped listening for updates")
		apiStopped <- struct{}{}
	}()

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		msg := fmt.Sprintf("bot stopped with error: %v", err)

		if sendErr := ctrl.NotifyAdmins(context.Background(), msg); sendErr != nil {
			return fmt.Errorf("notify admins about stopped bot (for reason: %v): %w", err, sendErr)
		}

		return err
	}

	if err := ctrl.NotifyAdmins(context.Background(), "bot stopped"); err != nil {
		return fmt.Errorf("notify admins about stopped bot: %w", err)
	}

	lg.Info("stopping telegram api")
	api.Stop()
	<-apiStopped
	lg.Info("telegram api stopped")

	return nil
}
