package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/app/store"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/go-shiori/go-readability"
	"golang.org/x/exp/slog"
)

// Enricher fills missing summaries and images of fetched articles
// from the pages the articles link to.
type Enricher struct {
	log         *slog.Logger
	next        feed.Fetcher
	cl          *http.Client
	maxPerFetch int
	cache       cache.Cache[string, page]
}

type page struct {
	Excerpt string
	Image   string
}

// NewEnricher wraps the fetcher. At most maxPerFetch pages are
// downloaded per single fetch, zero means no limit. Extracted pages
// are kept for ttl.
func NewEnricher(lg *slog.Logger, next feed.Fetcher, cl *http.Client, maxPerFetch int, ttl time.Duration) *Enricher {
	return &Enricher{
		log:         lg,
		next:        next,
		cl:          cl,
		maxPerFetch: maxPerFetch,
		cache: cache.NewCache[string, page]().
			WithLRU().
			WithMaxKeys(1000).
			WithTTL(ttl),
	}
}

// CacheStat returns stats of the extracted pages cache.
func (e *Enricher) CacheStat() cache.Stats { return e.cache.Stat() }

// Fetch loads articles from the wrapped fetcher and enriches them.
func (e *Enricher) Fetch(ctx context.Context, req feed.FetchRequest) ([]store.Article, error) {
	articles, err := e.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	res := make([]store.Article, len(articles))
	copy(res, articles)

	extracted := 0
	for i := range res {
		a := &res[i]
		if a.URL == "" || (a.Summary != "" && a.ImageURL != "") {
			continue
		}

		p, ok := e.cache.Get(a.URL)
		if !ok {
			if e.maxPerFetch > 0 && extracted >= e.maxPerFetch {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			extracted++

			p, err = e.extract(ctx, a.URL)
			switch {
			case err == nil:
				e.cache.Set(a.URL, p, 0)
			case timedOut(err):
				// the page is retried on the next fetch
				e.log.DebugCtx(ctx, "article extraction timed out", slog.String("url", a.URL), slog.Any("err", err))
			default:
				e.log.DebugCtx(ctx, "failed to extract article", slog.String("url", a.URL), slog.Any("err", err))
				// broken pages are cached too, not to hammer them on every refresh
				e.cache.Set(a.URL, p, 0)
			}
		}

		if a.Summary == "" {
			a.Summary = p.Excerpt
		}
		if a.ImageURL == "" {
			a.ImageURL = p.Image
		}
	}

	return res, nil
}

// timedOut reports whether the extraction was interrupted rather than
// failed on the page itself.
func timedOut(err error) bool {
	var ne net.Error
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		(errors.As(err, &ne) && ne.Timeout())
}

func (e *Enricher) extract(ctx context.Context, u string) (page, error) {
	pageURL, err := url.Parse(u)
	if err != nil {
		return page{}, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return page{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.cl.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			e.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return page{}, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	doc, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return page{}, fmt.Errorf("parse html: %w", err)
	}

	return page{Excerpt: sanitize(doc.Excerpt), Image: doc.Image}, nil
}

var spaces = regexp.MustCompile(`\s+`)

func sanitize(s string) string {
	// nbsp
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
