package feed

import (
	"time"

	"github.com/Semior001/feedcache/app/store"
	"github.com/Semior001/feedcache/pkg/logx"
	"golang.org/x/exp/slog"
)

// Options defines options for Manager.
type Options struct {
	Logger        *slog.Logger
	Persister     Persister
	Categories    []string
	DefaultPolicy Policy
	Policies      map[string]Policy
	FetchTimeout  time.Duration
	OnMerge       func(category string, added []store.Article)
	Clock         func() time.Time
}

// Option defines a function that configures Manager.
type Option func(*Options)

// DefaultPolicy is used for categories without explicit policy.
var DefaultPolicy = Policy{
	Freshness:   5 * time.Minute,
	Interval:    10 * time.Minute,
	MaxArticles: 200,
	PageSize:    50,
}

func defaultOptions() Options {
	return Options{
		Logger:        slog.New(logx.NoOp()),
		DefaultPolicy: DefaultPolicy,
		Policies:      map[string]Policy{},
		FetchTimeout:  30 * time.Second,
		Clock:         time.Now,
	}
}

// WithLogger sets the logger to use.
func WithLogger(lg *slog.Logger) Option {
	return func(o *Options) { o.Logger = lg }
}

// WithPersister sets the storage for snapshots of categories.
func WithPersister(p Persister) Option {
	return func(o *Options) { o.Persister = p }
}

// WithCategories sets the categories known at start.
func WithCategories(categories ...string) Option {
	return func(o *Options) { o.Categories = append(o.Categories, categories...) }
}

// WithDefaultPolicy sets the policy for categories without explicit one.
func WithDefaultPolicy(p Policy) Option {
	return func(o *Options) { o.DefaultPolicy = p }
}

// WithPolicy sets the policy for the particular category.
func WithPolicy(category string, p Policy) Option {
	return func(o *Options) { o.Policies[category] = p }
}

// WithFetchTimeout bounds every call to the remote source.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *Options) { o.FetchTimeout = d }
}

// WithMergeHook sets the function to call with newly added articles
// after each refresh. It is not called for the first load of a category.
func WithMergeHook(fn func(category string, added []store.Article)) Option {
	return func(o *Options) { o.OnMerge = fn }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Clock = now }
}
