package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storage interface {
	Interface
	Load(ctx context.Context, category string) (Snapshot, error)
	Save(ctx context.Context, category string, s Snapshot) error
	Clear(ctx context.Context, category string) error
	ClearAll(ctx context.Context) error
	Close() error
}

func storages(t *testing.T) map[string]storage {
	b, err := NewBolt(t.TempDir())
	require.NoError(t, err)

	s, err := NewSQLite(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, b.Close())
		assert.NoError(t, s.Close())
	})

	return map[string]storage{"bolt": b, "sqlite": s}
}

func TestStorage_Users(t *testing.T) {
	for name, st := range storages(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := st.Get(ctx, "1")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Put(ctx, User{ChatID: "1", Username: "alice", Authorized: true, Subscribed: true}))
			require.NoError(t, st.Put(ctx, User{ChatID: "2", Username: "bob"}))

			u, err := st.Get(ctx, "1")
			require.NoError(t, err)
			assert.Equal(t, User{ChatID: "1", Username: "alice", Authorized: true, Subscribed: true}, u)

			users, err := st.List(ctx, ListRequest{})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"1", "2"}, chatIDs(users))

			users, err = st.List(ctx, ListRequest{OnlySubscribed: true})
			require.NoError(t, err)
			assert.Equal(t, []string{"1"}, chatIDs(users))

			require.NoError(t, st.Put(ctx, User{ChatID: "2", Username: "bob", Authorized: true, Subscribed: true}))
			users, err = st.List(ctx, ListRequest{OnlySubscribed: true})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"1", "2"}, chatIDs(users))

			require.NoError(t, st.Delete(ctx, "1"))
			_, err = st.Get(ctx, "1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStorage_Feeds(t *testing.T) {
	for name, st := range storages(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			fetchedAt := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)

			_, err := st.Load(ctx, "breaking")
			assert.ErrorIs(t, err, ErrNotFound)

			snap := Snapshot{
				Articles: []Article{
					{ID: "a", URL: "https://a.com", Title: "A", PublishedAt: fetchedAt.Add(-time.Hour)},
					{ID: "b", URL: "https://b.com", Title: "B", PublishedAt: fetchedAt.Add(-2 * time.Hour)},
				},
				FetchedAt: fetchedAt,
			}
			require.NoError(t, st.Save(ctx, "breaking", snap))
			require.NoError(t, st.Save(ctx, "all", Snapshot{Articles: snap.Articles[:1], FetchedAt: fetchedAt}))

			got, err := st.Load(ctx, "breaking")
			require.NoError(t, err)
			assert.True(t, got.FetchedAt.Equal(fetchedAt), "fetched at %s", got.FetchedAt)
			require.Len(t, got.Articles, 2)
			assert.Equal(t, []string{"a", "b"}, []string{got.Articles[0].ID, got.Articles[1].ID})
			assert.True(t, got.Articles[0].PublishedAt.Equal(snap.Articles[0].PublishedAt))

			require.NoError(t, st.Clear(ctx, "breaking"))
			_, err = st.Load(ctx, "breaking")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = st.Load(ctx, "all")
			require.NoError(t, err)

			require.NoError(t, st.ClearAll(ctx))
			_, err = st.Load(ctx, "all")
			assert.ErrorIs(t, err, ErrNotFound)

			// storage keeps working after everything is cleared
			require.NoError(t, st.Save(ctx, "all", snap))
			_, err = st.Load(ctx, "all")
			require.NoError(t, err)
		})
	}
}

func TestArticle_Key(t *testing.T) {
	assert.Equal(t, "id", Article{ID: "id", URL: "u", Title: "t"}.Key())
	assert.Equal(t, "u", Article{URL: "u", Title: "t"}.Key())
	assert.Equal(t, "t", Article{Title: "t"}.Key())
	assert.Empty(t, Article{Summary: "s"}.Key())
}

func TestArticle_Normalize(t *testing.T) {
	a := Article{URL: "https://example.com/news/1", Title: "first"}.Normalize()
	assert.NotEmpty(t, a.ID)

	// derived from url only, not from content
	b := Article{URL: "https://example.com/news/1", Title: "edited"}.Normalize()
	assert.Equal(t, a.ID, b.ID)

	c := Article{ID: "given", URL: "https://example.com/news/1"}.Normalize()
	assert.Equal(t, "given", c.ID)

	d := Article{Title: "no url"}.Normalize()
	assert.Empty(t, d.ID)
}

func chatIDs(users []User) []string {
	res := make([]string, 0, len(users))
	for _, u := range users {
		res = append(res, u.ChatID)
	}
	return res
}
