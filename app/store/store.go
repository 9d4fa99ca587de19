// Package store contains entities and storages to persist them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is an error that is returned when the requested entity is not found.
var ErrNotFound = errors.New("not found")

// Interface defines methods for users store.
type Interface interface {
	Put(ctx context.Context, u User) error
	Get(ctx context.Context, chatID string) (User, error)
	List(ctx context.Context, req ListRequest) ([]User, error)
	Delete(ctx context.Context, chatID string) error
}

// ListRequest defines parameters for listing users from store.
type ListRequest struct {
	OnlySubscribed bool
}

// User is a struct that contains the user's data.
type User struct {
	ChatID     string `json:"chat_id"     db:"chat_id"`
	Username   string `json:"username"    db:"username"`
	Authorized bool   `json:"authorized"  db:"authorized"`
	Subscribed bool   `json:"subscribed"  db:"subscribed"`
}

// Article is a single news item of some feed.
type Article struct {
	ID          string    `json:"id,omitempty"`
	URL         string    `json:"url,omitempty"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Network     string    `json:"network,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// Key returns the natural key of the article: id, url or title,
// whichever is present first. Empty key means the article can't be
// deduplicated.
func (a Article) Key() string {
	switch {
	case a.ID != "":
		return a.ID
	case a.URL != "":
		return a.URL
	default:
		return a.Title
	}
}

// Normalize fills the id of the article from its url, if the source
// didn't provide one.
func (a Article) Normalize() Article {
	if a.ID == "" && a.URL != "" {
		a.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(a.URL)).String()
	}
	return a
}

// Snapshot is a persisted state of a single feed category.
type Snapshot struct {
	Articles  []Article `json:"articles"`
	FetchedAt time.Time `json:"fetched_at"`
}
