package feed

import (
	"sort"

	"github.com/Semior001/feedcache/app/store"
	"github.com/samber/lo"
)

// MergeResult describes the outcome of a merge.
type MergeResult struct {
	Articles []store.Article // merged articles, newest first
	Added    []store.Article // articles from the fresh batch that were not cached before
	Dropped  []store.Article // malformed articles without natural key
}

// Merge merges a freshly fetched batch into the existing articles.
// Articles that are already cached are never updated, even if the fresh
// copy differs. The result is sorted by publication time, newest first,
// and truncated to maxArticles, if it is positive.
// Neither of the input slices is modified.
func Merge(existing, fresh []store.Article, maxArticles int) MergeResult {
	var res MergeResult

	seen := make(map[string]struct{}, len(existing)+len(fresh))
	kept := make([]store.Article, 0, len(existing))
	for _, a := range existing {
		key := a.Key()
		if key == "" {
			res.Dropped = append(res.Dropped, a)
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, a)
	}

	for _, a := range fresh {
		key := a.Key()
		if key == "" {
			res.Dropped = append(res.Dropped, a)
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res.Added = append(res.Added, a)
	}

	merged := make([]store.Article, 0, len(res.Added)+len(kept))
	merged = append(merged, res.Added...)
	merged = append(merged, kept...)

	// keys break ties, so that the order doesn't depend on the batch order
	// and the truncation of a repeated merge evicts the same articles
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].PublishedAt.Equal(merged[j].PublishedAt) {
			return merged[i].PublishedAt.After(merged[j].PublishedAt)
		}
		return merged[i].Key() < merged[j].Key()
	})

	if maxArticles > 0 && len(merged) > maxArticles {
		evicted := lo.KeyBy(merged[maxArticles:], func(a store.Article) string { return a.Key() })
		merged = merged[:maxArticles]
		res.Added = lo.Filter(res.Added, func(a store.Article, _ int) bool {
			_, gone := evicted[a.Key()]
			return !gone
		})
	}

	res.Articles = merged
	return res
}
