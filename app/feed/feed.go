// Package feed implements a stale-while-revalidate cache of news feeds,
// partitioned by category.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/Semior001/feedcache/app/store"
)

// State is a state of a single feed category.
type State int

// States of the feed category.
const (
	StateEmpty      State = iota // never loaded
	StatePopulated               // has data, no fetch in flight
	StateRefreshing              // has data, background fetch in flight
	StateLoading                 // no data, foreground fetch in flight
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateRefreshing:
		return "refreshing"
	case StateLoading:
		return "loading"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Policy describes how the category is refreshed and how many articles it keeps.
type Policy struct {
	// Freshness is a period after which the category is stale.
	Freshness time.Duration
	// Interval is a period of the proactive background refresh,
	// zero disables the schedule.
	Interval time.Duration
	// MaxArticles limits the amount of stored articles, zero means no limit.
	MaxArticles int
	// PageSize is a number of articles requested from the source at once.
	PageSize int
}

// FetchRequest describes a single request to the remote source.
type FetchRequest struct {
	Category string
	Page     int // starting from 1
	Limit    int
}

//go:generate moq -out mock_fetcher.go . Fetcher

// Fetcher loads articles of the category from the remote source.
// It must make a single attempt and return articles sorted newest first.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) ([]store.Article, error)
}

//go:generate moq -out mock_persister.go . Persister

// Persister stores snapshots of categories between restarts.
type Persister interface {
	Load(ctx context.Context, category string) (store.Snapshot, error)
	Save(ctx context.Context, category string, s store.Snapshot) error
	Clear(ctx context.Context, category string) error
	ClearAll(ctx context.Context) error
}

// FetchError is returned when the category has no data and
// the remote source failed to provide it.
type FetchError struct {
	Category string
	Err      error
}

// Error returns the error message.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch category %q: %v", e.Category, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// Stat describes the current state of a category.
type Stat struct {
	Category  string
	State     State
	Articles  int
	FetchedAt time.Time
	Scheduled bool
}
