package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/app/store"
	"github.com/mmcdole/gofeed"
	"golang.org/x/exp/slog"
)

// RSS loads articles of categories from RSS and Atom feeds.
type RSS struct {
	log    *slog.Logger
	parser *gofeed.Parser
	feeds  map[string][]string
	now    func() time.Time
}

// NewRSS makes a new RSS source with the given feed urls per category.
func NewRSS(lg *slog.Logger, cl *http.Client, feeds map[string][]string) *RSS {
	parser := gofeed.NewParser()
	parser.Client = cl

	return &RSS{log: lg, parser: parser, feeds: feeds, now: time.Now}
}

// ParseFeeds parses "category=url" pairs.
func ParseFeeds(pairs []string) (map[string][]string, error) {
	res := map[string][]string{}
	for _, p := range pairs {
		category, u, ok := strings.Cut(p, "=")
		if !ok || category == "" || u == "" {
			return nil, fmt.Errorf("invalid feed %q, want category=url", p)
		}
		res[category] = append(res[category], u)
	}
	return res, nil
}

// Fetch loads all feeds of the category. Feeds have no pages, so only
// the first page has articles. A failed feed is skipped, unless all
// of them failed.
func (r *RSS) Fetch(ctx context.Context, req feed.FetchRequest) ([]store.Article, error) {
	urls, ok := r.feeds[req.Category]
	if !ok {
		return nil, fmt.Errorf("no feeds for category %q", req.Category)
	}

	if req.Page > 1 {
		return nil, nil
	}

	var (
		res  []store.Article
		errs []error
	)

	for _, u := range urls {
		items, err := r.parse(ctx, req.Category, u)
		if err != nil {
			r.log.WarnCtx(ctx, "failed to fetch feed", slog.String("url", u), slog.Any("err", err))
			errs = append(errs, err)
			continue
		}
		res = append(res, items...)
	}

	if len(errs) == len(urls) {
		return nil, errors.Join(errs...)
	}

	sortNewestFirst(res)
	if req.Limit > 0 && len(res) > req.Limit {
		res = res[:req.Limit]
	}

	return res, nil
}

func (r *RSS) parse(ctx context.Context, category, u string) ([]store.Article, error) {
	f, err := r.parser.ParseURLWithContext(u, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u, err)
	}

	res := make([]store.Article, 0, len(f.Items))
	for _, item := range f.Items {
		a := store.Article{
			URL:      item.Link,
			Title:    strings.TrimSpace(item.Title),
			Summary:  strings.TrimSpace(item.Description),
			Network:  f.Title,
			Category: category,
		}

		if item.GUID != "" && item.GUID != item.Link {
			a.ID = item.GUID
		}

		switch {
		case item.PublishedParsed != nil:
			a.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			a.PublishedAt = *item.UpdatedParsed
		default:
			a.PublishedAt = r.now()
		}

		if item.Image != nil {
			a.ImageURL = item.Image.URL
		}

		res = append(res, a.Normalize())
	}

	return res, nil
}

func sortNewestFirst(articles []store.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
