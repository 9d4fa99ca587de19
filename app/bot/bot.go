// Package bot contains routers and controllers for bots.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/app/source"
	"github.com/Semior001/feedcache/app/store"
	"github.com/Semior001/feedcache/pkg/botx"
	"github.com/Semior001/feedcache/pkg/botx/botmw"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

//go:generate moq -out mock_feeds.go . Feeds

// Feeds provides cached articles of feed categories.
type Feeds interface {
	Get(category string) ([]store.Article, feed.State)
	EnsureFresh(ctx context.Context, category string) ([]store.Article, error)
	LoadMore(ctx context.Context, category string) ([]store.Article, error)
	RefreshAll(ctx context.Context) error
	Categories() []string
	Stats() []feed.Stat
}

// CacheStater reports stats of some cache.
type CacheStater interface {
	CacheStat() cache.Stats
}

// Commands describes the commands available to all users.
var Commands = map[string]string{
	"/news":       "latest headlines, optionally of the given category",
	"/more":       "older headlines of the category",
	"/categories": "list of categories",
	"/start":      "subscribe to breaking news",
	"/stop":       "unsubscribe from breaking news",
}

// Ctrl provides routes and controllers for bot updates.
type Ctrl struct {
	Logger         *slog.Logger
	Store          store.Interface
	Feeds          Feeds
	Enricher       CacheStater // optional
	API            botx.API
	AdminIDs       []string
	AuthToken      string
	HandlerTimeout time.Duration

	// DefaultCategory is shown when the command has no category.
	DefaultCategory string
	// PageSize is a number of articles shown in a single message.
	PageSize int
	// AllowClients permits categories filtered by client, which
	// are not configured in advance.
	AllowClients bool
}

// Routes returns a multiplexer for bot controllers.
func (c *Ctrl) Routes() *botx.Router {
	rtr := botx.NewRouter()

	rtr.Use(
		botmw.RequestID(),
		botmw.AppendRequestIDOnError(),
		botmw.Recover(c.Logger),
		botmw.Logger(c.Logger),
		botmw.Timeout(c.HandlerTimeout),
		c.ensureAuthorized,
	)

	rtr.Add("/start", c.start)
	rtr.Add("/stop", c.stop)
	rtr.Add("/news", c.news)
	rtr.Add("/more", c.more)
	rtr.Add("/categories", c.categories)

	rtr.Group(func(rtr *botx.Router) {
		rtr.Use(c.ensureAdmin)

		rtr.Add("/list", c.list)
		rtr.Add("/delete", c.delete)
		rtr.Add("/refresh", c.refresh)
		rtr.Add("/cache", c.cacheStats)
	})

	return rtr
}

func (c *Ctrl) start(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	u, ok := userFromContext(ctx)
	if !ok {
		return c.register(ctx, req)
	}

	u.Subscribed = true
	if err := c.Store.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   "You have been subscribed to news updates.",
	}}, nil
}

func (c *Ctrl) stop(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	u, ok := userFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no user in context")
	}

	u.Subscribed = false
	if err := c.Store.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   "You will no longer receive news updates.",
	}}, nil
}

func (c *Ctrl) ensureAdmin(h botx.Handler) botx.Handler {
	return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
		if !lo.Contains(c.AdminIDs, req.Chat.ID) {
			return nil, nil
		}

		return h(ctx, req)
	}
}

func (c *Ctrl) ensureAuthorized(h botx.Handler) botx.Handler {
	return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
		u, err := c.Store.Get(ctx, req.Chat.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.register(ctx, req)
			}

			return nil, fmt.Errorf("get user: %w", err)
		}

		if !u.Authorized {
			if strings.TrimSpace(req.Text) != c.AuthToken {
				return []botx.Response{{
					ChatID: req.Chat.ID,
					Text:   "You are not authorized, please provide a token.",
				}}, nil
			}

			u.Authorized = true
			u.Subscribed = true

			if err := c.Store.Put(ctx, u); err != nil {
				return nil, fmt.Errorf("update user: %w", err)
			}

			return []botx.Response{{
				ChatID: req.Chat.ID,
				Text: "You are now authorized.\n" +
					"Send /news to read the latest headlines, /categories to see what else is there.",
			}}, nil
		}

		return h(contextWithUser(ctx, u), req)
	}
}

func (c *Ctrl) register(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	u := store.User{
		ChatID:   req.Chat.ID,
		Username: req.Chat.Username,
	}

	if err := c.Store.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("add subscriber: %w", err)
	}

	const response = "Hello! In order to read the news, you need to provide a token,\n" +
		"please ask admin for it and then send it to me."

	if err := c.NotifyAdmins(ctx, fmt.Sprintf("new user: %s", escapeMarkdown(req.Chat.Username))); err != nil {
		c.Logger.WarnCtx(ctx, "notify admins about registered user", slog.Any("err", err))
	}

	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   response,
	}}, nil
}

// NotifyAdmins sends a message to all admins.
func (c *Ctrl) NotifyAdmins(ctx context.Context, msg string) error {
	for _, adminID := range c.AdminIDs {
		if err := c.API.SendMessage(ctx, botx.Response{
			ChatID: adminID,
			Text:   msg,
		}); err != nil {
			return fmt.Errorf("send message to admin: %w", err)
		}
	}

	return nil
}

// category returns the category requested by the command and whether
// it can be served.
func (c *Ctrl) category(req botx.Request) (string, bool) {
	args := req.Args()
	if len(args) == 0 {
		return c.DefaultCategory, true
	}

	name := strings.ToLower(args[0])
	if c.AllowClients && strings.HasPrefix(name, source.ClientPrefix) && len(name) > len(source.ClientPrefix) {
		return name, true
	}

	return name, lo.Contains(c.Feeds.Categories(), name)
}

type userKey struct{}

func userFromContext(ctx context.Context) (store.User, bool) {
	u, ok := ctx.Value(userKey{}).(store.User)
	return u, ok
}

func contextWithUser(ctx context.Context, u store.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}
