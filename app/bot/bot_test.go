package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/app/store"
	"github.com/Semior001/feedcache/pkg/botx"
	"github.com/Semior001/feedcache/pkg/logx"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

var published = time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)

type sentMessages struct {
	mu   sync.Mutex
	msgs []botx.Response
}

func (s *sentMessages) api() *botx.APIMock {
	return &botx.APIMock{SendMessageFunc: func(_ context.Context, resp botx.Response) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.msgs = append(s.msgs, resp)
		return nil
	}}
}

func (s *sentMessages) get() []botx.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]botx.Response(nil), s.msgs...)
}

func prepareCtrl(t *testing.T, feeds *FeedsMock) (*Ctrl, *sentMessages) {
	b, err := store.NewBolt(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, b.Close()) })

	require.NoError(t, b.Put(context.Background(), store.User{ChatID: "1", Username: "alice", Authorized: true, Subscribed: true}))
	require.NoError(t, b.Put(context.Background(), store.User{ChatID: "100", Username: "admin", Authorized: true}))

	sent := &sentMessages{}
	return &Ctrl{
		Logger:          slog.New(logx.NoOp()),
		Store:           b,
		Feeds:           feeds,
		API:             sent.api(),
		AdminIDs:        []string{"100"},
		AuthToken:       "secret",
		HandlerTimeout:  time.Second,
		DefaultCategory: "all",
		PageSize:        2,
	}, sent
}

func knownCategories() []string { return []string{"all", "breaking"} }

func handle(t *testing.T, c *Ctrl, chatID, text string) []botx.Response {
	t.Helper()
	resps, err := c.Routes().Handle(context.Background(), botx.Request{
		MessageID: "7",
		Chat:      botx.Chat{ID: chatID, Username: "user" + chatID},
		Text:      text,
	})
	require.NoError(t, err)
	return resps
}

func TestCtrl_Authorization(t *testing.T) {
	c, sent := prepareCtrl(t, &FeedsMock{})

	resps := handle(t, c, "2", "/news")
	require.Len(t, resps, 1)
	assert.Contains(t, resps[0].Text, "you need to provide a token")
	assert.Equal(t, []botx.Response{{ChatID: "100", Text: "new user: user2"}}, sent.get())

	resps = handle(t, c, "2", "/news")
	assert.Equal(t, "You are not authorized, please provide a token.", resps[0].Text)

	resps = handle(t, c, "2", "secret")
	assert.Contains(t, resps[0].Text, "You are now authorized.")

	u, err := c.Store.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, store.User{ChatID: "2", Username: "user2", Authorized: true, Subscribed: true}, u)
}

func TestCtrl_Subscription(t *testing.T) {
	c, _ := prepareCtrl(t, &FeedsMock{})
	ctx := context.Background()

	resps := handle(t, c, "1", "/stop")
	assert.Equal(t, "You will no longer receive news updates.", resps[0].Text)
	u, err := c.Store.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, u.Subscribed)

	resps = handle(t, c, "1", "/start")
	assert.Equal(t, "You have been subscribed to news updates.", resps[0].Text)
	u, err = c.Store.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, u.Subscribed)
}

func TestCtrl_News(t *testing.T) {
	feeds := &FeedsMock{
		CategoriesFunc: knownCategories,
		EnsureFreshFunc: func(_ context.Context, category string) ([]store.Article, error) {
			switch category {
			case "all":
				return []store.Article{
					{ID: "1", URL: "https://x.com/1", Title: "first_news", Network: "ethereum", PublishedAt: published},
					{ID: "2", Title: "second", PublishedAt: published.Add(-time.Hour)},
					{ID: "3", Title: "third", PublishedAt: published.Add(-2 * time.Hour)},
				}, nil
			case "breaking":
				return nil, &feed.FetchError{Category: category, Err: assert.AnError}
			default:
				return []store.Article{}, nil
			}
		},
	}
	c, _ := prepareCtrl(t, feeds)

	t.Run("default category", func(t *testing.T) {
		resps := handle(t, c, "1", "/news")
		require.Len(t, resps, 1)
		assert.Equal(t, "7", resps[0].ReplyToMessageID)
		assert.Equal(t, "*Latest in all*\n\n"+
			"• [first\\_news](https://x.com/1) _ethereum_, Mar 1 12:00\n"+
			"• second, Mar 1 11:00\n", resps[0].Text)
	})

	t.Run("fetch error", func(t *testing.T) {
		resps := handle(t, c, "1", "/news breaking")
		assert.Equal(t, "News source for breaking is unavailable, please try again later.", resps[0].Text)
	})

	t.Run("unknown category", func(t *testing.T) {
		resps := handle(t, c, "1", "/news client:binance")
		assert.Equal(t, "Unknown category client:binance, see /categories.", resps[0].Text)
	})

	t.Run("client category", func(t *testing.T) {
		c.AllowClients = true
		defer func() { c.AllowClients = false }()

		resps := handle(t, c, "1", "/news client:Binance")
		assert.Equal(t, "No news in client:binance yet.", resps[0].Text)
	})

	calls := feeds.EnsureFreshCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, "all", calls[0].Category)
	assert.Equal(t, "breaking", calls[1].Category)
	assert.Equal(t, "client:binance", calls[2].Category)
}

func TestCtrl_More(t *testing.T) {
	cached := []store.Article{{ID: "1", Title: "cached", PublishedAt: published}}
	feeds := &FeedsMock{
		CategoriesFunc: knownCategories,
		GetFunc: func(category string) ([]store.Article, feed.State) {
			if category == "breaking" {
				return []store.Article{}, feed.StateEmpty
			}
			return cached, feed.StatePopulated
		},
		LoadMoreFunc: func(_ context.Context, category string) ([]store.Article, error) {
			if category == "breaking" {
				return []store.Article{{ID: "5", Title: "first page", PublishedAt: published}}, nil
			}
			return append(cached, store.Article{ID: "2", Title: "older", PublishedAt: published.Add(-time.Hour)}), nil
		},
	}
	c, _ := prepareCtrl(t, feeds)

	resps := handle(t, c, "1", "/more")
	assert.Equal(t, "*More in all*\n\n• older, Mar 1 11:00\n", resps[0].Text)

	resps = handle(t, c, "1", "/more breaking")
	assert.Equal(t, "*More in breaking*\n\n• first page, Mar 1 12:00\n", resps[0].Text)

	cached = append(cached, store.Article{ID: "2", Title: "older", PublishedAt: published.Add(-time.Hour)})
	resps = handle(t, c, "1", "/more all")
	assert.Equal(t, "No more news in all.", resps[0].Text)
}

func TestCtrl_Categories(t *testing.T) {
	c, _ := prepareCtrl(t, &FeedsMock{CategoriesFunc: knownCategories})
	c.AllowClients = true

	resps := handle(t, c, "1", "/categories")
	assert.Equal(t, "Categories:\n• all\n• breaking\n\nNews of a particular client: /news client:name", resps[0].Text)
}

type cacheStaterFunc func() cache.Stats

func (f cacheStaterFunc) CacheStat() cache.Stats { return f() }

func TestCtrl_Admin(t *testing.T) {
	feeds := &FeedsMock{
		RefreshAllFunc: func(context.Context) error { return nil },
		StatsFunc: func() []feed.Stat {
			return []feed.Stat{
				{Category: "all", State: feed.StatePopulated, Articles: 3, FetchedAt: published, Scheduled: true},
				{Category: "client:x", State: feed.StateEmpty},
			}
		},
	}
	c, _ := prepareCtrl(t, feeds)
	c.Enricher = cacheStaterFunc(func() cache.Stats { return cache.Stats{Hits: 1, Misses: 2, Added: 3, Evicted: 4} })

	t.Run("not an admin", func(t *testing.T) {
		assert.Empty(t, handle(t, c, "1", "/refresh"))
		assert.Empty(t, feeds.RefreshAllCalls())
	})

	t.Run("refresh", func(t *testing.T) {
		resps := handle(t, c, "100", "/refresh")
		assert.Contains(t, resps[0].Text, "All feeds reloaded in")
		assert.Len(t, feeds.RefreshAllCalls(), 1)
	})

	t.Run("cache", func(t *testing.T) {
		resps := handle(t, c, "100", "/cache")
		assert.Equal(t, "Feeds:\n"+
			"all: populated, articles: 3, fetched: 2023-03-01T12:00:00Z, scheduled: true\n"+
			"client:x: empty, articles: 0, fetched: never, scheduled: false\n"+
			"\nPages: hits: 1, misses: 2, added: 3, evictions: 4\n", resps[0].Text)
	})

	t.Run("list and delete", func(t *testing.T) {
		resps := handle(t, c, "100", "/list")
		assert.Contains(t, resps[0].Text, "id: 1, username: alice, authorized: true, subscribed: true")

		resps = handle(t, c, "100", "/delete 1")
		assert.Equal(t, "User with id 1 was deleted.", resps[0].Text)

		_, err := c.Store.Get(context.Background(), "1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
