package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Semior001/feedcache/app/store"
	"github.com/Semior001/feedcache/pkg/botx"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

// Notifier sends fresh articles to subscribed users.
type Notifier struct {
	Logger *slog.Logger
	Store  store.Interface
	API    botx.API
	// Categories to notify about, empty means all of them.
	Categories []string
	// MaxArticles limits the amount of articles in a single notification.
	MaxArticles int
	Timeout     time.Duration
}

// OnMerge notifies subscribers about the articles added to the category.
func (n *Notifier) OnMerge(category string, added []store.Article) {
	if len(added) == 0 || (len(n.Categories) > 0 && !lo.Contains(n.Categories, category)) {
		return
	}

	ctx := context.Background()
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	users, err := n.Store.List(ctx, store.ListRequest{OnlySubscribed: true})
	if err != nil {
		n.Logger.WarnCtx(ctx, "failed to list subscribers", slog.Any("err", err))
		return
	}
	if len(users) == 0 {
		return
	}

	articles := added
	if n.MaxArticles > 0 && len(articles) > n.MaxArticles {
		articles = articles[:n.MaxArticles]
	}

	sb := &strings.Builder{}
	err = headlinesTmpl.Execute(sb, headlines{
		Header:   escapeMarkdown(fmt.Sprintf("New in %s", category)),
		Articles: lo.Map(articles, func(a store.Article, _ int) store.Article { return escapeArticle(a) }),
	})
	if err != nil {
		n.Logger.ErrorCtx(ctx, "failed to render notification", slog.Any("err", err))
		return
	}

	sent := 0
	for _, u := range users {
		if err := n.API.SendMessage(ctx, botx.Response{ChatID: u.ChatID, Text: sb.String()}); err != nil {
			n.Logger.WarnCtx(ctx, "failed to notify subscriber",
				slog.String("chat_id", u.ChatID), slog.Any("err", err))
			continue
		}
		sent++
	}

	n.Logger.InfoCtx(ctx, "notified subscribers",
		slog.String("category", category),
		slog.Int("articles", len(articles)),
		slog.Int("subscribers", sent))
}
