package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Semior001/feedcache/app/store"
	"github.com/Semior001/feedcache/pkg/botx"
)

func (c *Ctrl) list(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	users, err := c.Store.List(ctx, store.ListRequest{})
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	sb := &strings.Builder{}
	_, _ = sb.WriteString("Subscribers:\n")
	for _, u := range users {
		_, _ = sb.WriteString(fmt.Sprintf("id: %s, username: %s, authorized: %t, subscribed: %t\n",
			u.ChatID, escapeMarkdown(u.Username), u.Authorized, u.Subscribed))
	}

	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   sb.String(),
	}}, nil
}

func (c *Ctrl) delete(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	args := req.Args()
	if len(args) != 1 {
		return nil, errors.New("invalid command")
	}

	chatID := args[0]
	if err := c.Store.Delete(ctx, chatID); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}

	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   fmt.Sprintf("User with id %s was deleted.", chatID),
	}}, nil
}

func (c *Ctrl) refresh(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	start := time.Now()
	if err := c.Feeds.RefreshAll(ctx); err != nil {
		return nil, fmt.Errorf("refresh feeds: %w", err)
	}

	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   fmt.Sprintf("All feeds reloaded in %s.", time.Since(start).Round(time.Millisecond)),
	}}, nil
}

func (c *Ctrl) cacheStats(_ context.Context, req botx.Request) ([]botx.Response, error) {
	sb := &strings.Builder{}
	_, _ = sb.WriteString("Feeds:\n")
	for _, st := range c.Feeds.Stats() {
		fetched := "never"
		if !st.FetchedAt.IsZero() {
			fetched = st.FetchedAt.UTC().Format(time.RFC3339)
		}
		_, _ = sb.WriteString(fmt.Sprintf("%s: %s, articles: %d, fetched: %s, scheduled: %t\n",
			escapeMarkdown(st.Category), st.State, st.Articles, fetched, st.Scheduled))
	}

	if c.Enricher != nil {
		stats := c.Enricher.CacheStat()
		_, _ = sb.WriteString(fmt.Sprintf("\nPages: hits: %d, misses: %d, added: %d, evictions: %d\n",
			stats.Hits, stats.Misses, stats.Added, stats.Evicted))
	}

	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   sb.String(),
	}}, nil
}
