package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/app/source"
	"github.com/Semior001/feedcache/app/store"
	"golang.org/x/exp/slog"
)

// SourceGroup defines where the articles are loaded from.
type SourceGroup struct {
	Type string `long:"type" env:"TYPE" choice:"api" choice:"rss" default:"api" description:"type of the news source"`

	API struct {
		URL     string        `long:"url" env:"URL" description:"base url of the news API"`
		Token   string        `long:"token" env:"TOKEN" description:"bearer token for the news API"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"15s" description:"timeout for API calls"`
	} `group:"api" namespace:"api" env-namespace:"API"`

	RSS struct {
		Feeds   []string      `long:"feed" env:"FEEDS" env-delim:"," description:"feed of the category, as category=url"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"15s" description:"timeout for feed downloads"`
	} `group:"rss" namespace:"rss" env-namespace:"RSS"`

	Enrich struct {
		Enabled     bool          `long:"enabled" env:"ENABLED" description:"fill missing summaries and images from article pages"`
		MaxPerFetch int           `long:"max-per-fetch" env:"MAX_PER_FETCH" default:"10" description:"max pages to download per fetch, 0 for no limit"`
		TTL         time.Duration `long:"ttl" env:"TTL" default:"24h" description:"how long to keep extracted pages"`
		Timeout     time.Duration `long:"timeout" env:"TIMEOUT" default:"5s" description:"timeout for page downloads"`
	} `group:"enrich" namespace:"enrich" env-namespace:"ENRICH"`
}

// Fetcher builds the fetcher of the configured source. Enricher is nil,
// if enrichment is disabled.
func (g SourceGroup) Fetcher(lg *slog.Logger) (feed.Fetcher, *source.Enricher, error) {
	var fetcher feed.Fetcher

	switch g.Type {
	case "api":
		if g.API.URL == "" {
			return nil, nil, errors.New("news API url is required")
		}
		fetcher = source.NewHTTP(
			lg.With(slog.String("prefix", "news-api")),
			http.Client{Timeout: g.API.Timeout},
			g.API.URL,
			g.API.Token,
		)
	case "rss":
		feeds, err := source.ParseFeeds(g.RSS.Feeds)
		if err != nil {
			return nil, nil, fmt.Errorf("parse feeds: %w", err)
		}
		if len(feeds) == 0 {
			return nil, nil, errors.New("at least one feed is required")
		}
		fetcher = source.NewRSS(
			lg.With(slog.String("prefix", "rss")),
			&http.Client{Timeout: g.RSS.Timeout},
			feeds,
		)
	default:
		return nil, nil, fmt.Errorf("unknown source type %q", g.Type)
	}

	if !g.Enrich.Enabled {
		return fetcher, nil, nil
	}

	enricher := source.NewEnricher(
		lg.With(slog.String("prefix", "enricher")),
		fetcher,
		&http.Client{Timeout: g.Enrich.Timeout},
		g.Enrich.MaxPerFetch,
		g.Enrich.TTL,
	)

	return enricher, enricher, nil
}

// FeedGroup defines cached categories and their refresh policies.
type FeedGroup struct {
	Categories   []string      `long:"category" env:"CATEGORIES" env-delim:"," default:"all" description:"categories to keep"`
	Freshness    time.Duration `long:"freshness" env:"FRESHNESS" default:"5m" description:"period after which the category is stale"`
	Interval     time.Duration `long:"interval" env:"INTERVAL" default:"10m" description:"background refresh interval, 0 to disable"`
	MaxArticles  int           `long:"max-articles" env:"MAX_ARTICLES" default:"200" description:"max articles per category, 0 for no limit"`
	PageSize     int           `long:"page-size" env:"PAGE_SIZE" default:"50" description:"articles requested from the source at once"`
	FetchTimeout time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30s" description:"timeout for a single fetch"`

	Intervals   map[string]time.Duration `long:"interval-for" env:"INTERVAL_FOR" env-delim:"," description:"refresh interval of the particular category, as category:duration"`
	FreshnessOf map[string]time.Duration `long:"freshness-for" env:"FRESHNESS_FOR" env-delim:"," description:"freshness of the particular category, as category:duration"`
}

// Options returns manager options of the configured categories.
func (g FeedGroup) Options() []feed.Option {
	def := feed.Policy{
		Freshness:   g.Freshness,
		Interval:    g.Interval,
		MaxArticles: g.MaxArticles,
		PageSize:    g.PageSize,
	}

	opts := []feed.Option{
		feed.WithCategories(g.Categories...),
		feed.WithDefaultPolicy(def),
		feed.WithFetchTimeout(g.FetchTimeout),
	}

	overridden := map[string]feed.Policy{}
	for category, interval := range g.Intervals {
		p, ok := overridden[category]
		if !ok {
			p = def
		}
		p.Interval = interval
		overridden[category] = p
	}
	for category, freshness := range g.FreshnessOf {
		p, ok := overridden[category]
		if !ok {
			p = def
		}
		p.Freshness = freshness
		overridden[category] = p
	}

	for category, p := range overridden {
		opts = append(opts, feed.WithPolicy(category, p))
	}

	return opts
}

// StoreGroup defines the storage of users and feed snapshots.
type StoreGroup struct {
	Type string `long:"type" env:"TYPE" choice:"bolt" choice:"sqlite" default:"bolt" description:"type of the storage"`
	Path string `long:"path" env:"PATH" description:"parent dir for storage files"`
}

// Storage keeps users and snapshots of feeds.
type Storage interface {
	store.Interface
	feed.Persister
	io.Closer
}

// Open opens the configured storage.
func (g StoreGroup) Open() (Storage, error) {
	switch g.Type {
	case "bolt":
		b, err := store.NewBolt(g.Path)
		if err != nil {
			return nil, fmt.Errorf("open bolt: %w", err)
		}
		return b, nil
	case "sqlite":
		s, err := store.NewSQLite(g.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", g.Type)
	}
}
