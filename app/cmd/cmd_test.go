package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/app/source"
	"github.com/Semior001/feedcache/app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestFeed_Run(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"articles": [
				{"id": "1", "url": "https://x.com/1", "title": "first", "network": "bitcoin", "published_at": "2023-03-01T12:00:00Z"}
			]}`))
		default:
			_, _ = w.Write([]byte(`{"articles": [
				{"id": "2", "title": "second", "published_at": "2023-03-01T11:00:00Z"}
			]}`))
		}
	}))
	defer ts.Close()

	f := Feed{Category: "breaking", Pages: 2}
	f.Source.Type = "api"
	f.Source.API.URL = ts.URL
	f.Source.API.Timeout = time.Second
	f.Feed = FeedGroup{Categories: []string{"breaking"}, PageSize: 10, MaxArticles: 100}

	newManager := func() *feed.Manager {
		fetcher, enricher, err := f.Source.Fetcher(slog.Default())
		require.NoError(t, err)
		assert.Nil(t, enricher)
		return feed.NewManager(fetcher, f.Feed.Options()...)
	}

	buf := &bytes.Buffer{}
	require.NoError(t, f.run(context.Background(), newManager(), buf))
	assert.Equal(t, "2023-03-01T12:00:00Z  first [bitcoin]\n"+
		"    https://x.com/1\n"+
		"2023-03-01T11:00:00Z  second\n", buf.String())

	f.JSON = true
	buf.Reset()
	require.NoError(t, f.run(context.Background(), newManager(), buf))

	var articles []store.Article
	require.NoError(t, json.Unmarshal(buf.Bytes(), &articles))
	require.Len(t, articles, 2)
	assert.Equal(t, "1", articles[0].ID)
	assert.Equal(t, "breaking", articles[1].Category)
}

func TestFeed_Run_StaleSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`{"articles": [{"id": "fresh", "title": "fresh", "published_at": "2023-03-02T12:00:00Z"}]}`))
	}))
	defer ts.Close()

	f := Feed{Category: "all", Pages: 1, Persist: true}
	f.Source.Type = "api"
	f.Source.API.URL = ts.URL
	f.Source.API.Timeout = time.Second
	f.Feed = FeedGroup{Categories: []string{"all"}, Freshness: time.Minute, PageSize: 10, MaxArticles: 100}
	f.Store = StoreGroup{Type: "bolt", Path: t.TempDir()}

	s, err := f.Store.Open()
	require.NoError(t, err)
	defer func() { assert.NoError(t, s.Close()) }()

	require.NoError(t, s.Save(context.Background(), "all", store.Snapshot{
		Articles:  []store.Article{{ID: "stale", Title: "stale", PublishedAt: time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)}},
		FetchedAt: time.Now().Add(-time.Hour),
	}))

	fetcher, _, err := f.Source.Fetcher(slog.Default())
	require.NoError(t, err)
	mgr := feed.NewManager(fetcher, append(f.Feed.Options(), feed.WithPersister(s))...)

	buf := &bytes.Buffer{}
	require.NoError(t, f.run(context.Background(), mgr, buf))
	assert.Equal(t, "2023-03-02T12:00:00Z  fresh\n2023-03-01T12:00:00Z  stale\n", buf.String())

	// the refreshed snapshot is saved before run returns
	snap, err := s.Load(context.Background(), "all")
	require.NoError(t, err)
	require.Len(t, snap.Articles, 2)
	assert.Equal(t, "fresh", snap.Articles[0].ID)
}

func TestSourceGroup_Fetcher(t *testing.T) {
	g := SourceGroup{Type: "api"}
	_, _, err := g.Fetcher(slog.Default())
	assert.Error(t, err)

	g = SourceGroup{Type: "rss"}
	g.RSS.Feeds = []string{"breaking=https://x.com/rss"}
	g.Enrich.Enabled = true
	fetcher, enricher, err := g.Fetcher(slog.Default())
	require.NoError(t, err)
	require.NotNil(t, enricher)
	assert.IsType(t, &source.Enricher{}, fetcher)

	g.RSS.Feeds = []string{"https://x.com/rss"}
	_, _, err = g.Fetcher(slog.Default())
	assert.Error(t, err)
}

func TestFeedGroup_Options(t *testing.T) {
	g := FeedGroup{
		Categories:  []string{"all", "breaking"},
		Freshness:   time.Minute,
		Interval:    time.Hour,
		MaxArticles: 10,
		PageSize:    5,
		Intervals:   map[string]time.Duration{"breaking": time.Minute},
		FreshnessOf: map[string]time.Duration{"breaking": time.Second, "all": 2 * time.Minute},
	}

	var opts feed.Options
	opts.Policies = map[string]feed.Policy{}
	for _, opt := range g.Options() {
		opt(&opts)
	}

	assert.Equal(t, []string{"all", "breaking"}, opts.Categories)
	assert.Equal(t, feed.Policy{Freshness: time.Minute, Interval: time.Hour, MaxArticles: 10, PageSize: 5}, opts.DefaultPolicy)
	assert.Equal(t, map[string]feed.Policy{
		"breaking": {Freshness: time.Second, Interval: time.Minute, MaxArticles: 10, PageSize: 5},
		"all":      {Freshness: 2 * time.Minute, Interval: time.Hour, MaxArticles: 10, PageSize: 5},
	}, opts.Policies)
}

func TestStoreGroup_Open(t *testing.T) {
	for _, tp := range []string{"bolt", "sqlite"} {
		s, err := StoreGroup{Type: tp, Path: t.TempDir()}.Open()
		require.NoError(t, err, tp)
		require.NoError(t, s.Put(context.Background(), store.User{ChatID: "1"}))
		assert.NoError(t, s.Close())
	}

	_, err := StoreGroup{Type: "redis"}.Open()
	assert.Error(t, err)
}
