package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Semior001/feedcache/app/store"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Manager keeps articles of feed categories in memory, serves them
// without waiting for the network and refreshes them in background.
// At most one fetch per category is in flight at any moment.
type Manager struct {
	fetcher Fetcher
	Options

	sf singleflight.Group

	mu       sync.Mutex
	feeds    map[string]*category
	inflight int        // number of fetches in flight
	idle     *sync.Cond // signalled when inflight drops to zero

	schedMu   sync.Mutex
	schedules map[string]context.CancelFunc
	schedWG   sync.WaitGroup
}

type category struct {
	articles  []store.Article // replaced on merge, never modified in place
	fetchedAt time.Time
	state     State
	page      int
	fetching  bool
	// resets counts RefreshAll calls, a fetch of an older page started
	// before the reset is replaced by the first page
	resets int
	// baseline is set when the category has data to compare fresh
	// batches against, merge hook is called only after that
	baseline bool
}

// NewManager makes a new Manager with empty categories.
func NewManager(fetcher Fetcher, opts ...Option) *Manager {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	m := &Manager{
		fetcher:   fetcher,
		Options:   options,
		feeds:     map[string]*category{},
		schedules: map[string]context.CancelFunc{},
	}
	m.idle = sync.NewCond(&m.mu)

	for _, name := range options.Categories {
		m.feeds[name] = &category{}
	}

	return m
}

// Hydrate loads persisted snapshots of the known categories.
// Categories that are already loading or loaded are left intact.
func (m *Manager) Hydrate(ctx context.Context) {
	if m.Persister == nil {
		return
	}

	for _, name := range m.Options.Categories {
		snap, err := m.Persister.Load(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			m.Logger.WarnCtx(ctx, "failed to load persisted feed",
				slog.String("category", name), slog.Any("err", err))
			continue
		}

		res := Merge(nil, snap.Articles, m.policy(name).MaxArticles)
		m.logDropped(ctx, name, res.Dropped)
		if len(res.Articles) == 0 {
			continue
		}

		m.mu.Lock()
		if c := m.category(name); c.state == StateEmpty {
			c.articles = res.Articles
			c.fetchedAt = snap.FetchedAt
			c.state = StatePopulated
			c.page = 1
			c.baseline = true
		}
		m.mu.Unlock()

		m.Logger.DebugCtx(ctx, "hydrated feed",
			slog.String("category", name),
			slog.Int("articles", len(res.Articles)),
			slog.Time("fetched_at", snap.FetchedAt))
	}
}

// Get returns a copy of cached articles of the category and its state.
// It never blocks on the network.
func (m *Manager) Get(name string) ([]store.Article, State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.feeds[name]
	if !ok {
		return []store.Article{}, StateEmpty
	}

	return clone(c.articles), c.state
}

// EnsureFresh returns the latest articles of the category.
// An empty category is loaded while the caller waits, the stale one is
// returned as is and refreshed in background.
// FetchError is returned only if the category has no data at all.
func (m *Manager) EnsureFresh(ctx context.Context, name string) ([]store.Article, error) {
	return m.revalidate(ctx, name, false)
}

// Refresh is the same as EnsureFresh, but starts background refresh
// of a populated category regardless of its freshness.
func (m *Manager) Refresh(ctx context.Context, name string) ([]store.Article, error) {
	return m.revalidate(ctx, name, true)
}

func (m *Manager) revalidate(ctx context.Context, name string, force bool) ([]store.Article, error) {
	m.mu.Lock()
	c := m.category(name)

	switch c.state {
	case StateRefreshing:
		res := clone(c.articles)
		m.mu.Unlock()
		return res, nil
	case StatePopulated:
		if !force && m.Clock().Sub(c.fetchedAt) < m.policy(name).Freshness {
			res := clone(c.articles)
			m.mu.Unlock()
			return res, nil
		}

		c.state = StateRefreshing
		_ = m.fetch(name, 1) // nobody waits for a background refresh
		res := clone(c.articles)
		m.mu.Unlock()

		m.Logger.DebugCtx(ctx, "serving stale feed, refreshing in background", slog.String("category", name))
		return res, nil
	case StateEmpty:
		c.state = StateLoading
	}

	// joins the in-flight call, as it is registered while the category is loading
	ch := m.fetch(name, 1)
	m.mu.Unlock()

	return wait(ctx, ch)
}

// LoadMore loads the next page of the category and merges it.
// If a fetch for the category is already in flight, the cached
// articles are returned instead.
func (m *Manager) LoadMore(ctx context.Context, name string) ([]store.Article, error) {
	m.mu.Lock()
	c := m.category(name)

	switch c.state {
	case StateEmpty:
		m.mu.Unlock()
		return m.EnsureFresh(ctx, name)
	case StateLoading, StateRefreshing:
		res := clone(c.articles)
		m.mu.Unlock()
		return res, nil
	}

	c.state = StateRefreshing
	ch := m.fetch(name, c.page+1)
	m.mu.Unlock()

	return wait(ctx, ch)
}

// RefreshAll drops persisted and cached data of all categories and
// loads them again in parallel. It returns the first load error.
func (m *Manager) RefreshAll(ctx context.Context) error {
	if m.Persister != nil {
		if err := m.Persister.ClearAll(ctx); err != nil {
			m.Logger.WarnCtx(ctx, "failed to clear persisted feeds", slog.Any("err", err))
		}
	}

	calls := map[string]<-chan singleflight.Result{}

	m.mu.Lock()
	for name, c := range m.feeds {
		c.articles = nil
		c.fetchedAt = time.Time{}
		c.page = 0
		c.baseline = false
		c.resets++
		c.state = StateLoading
		// a fetch that is already in flight is reused as the reload
		calls[name] = m.fetch(name, 1)
	}
	m.mu.Unlock()

	ewg := &errgroup.Group{}
	for name, ch := range calls {
		name, ch := name, ch
		ewg.Go(func() error {
			if _, err := wait(ctx, ch); err != nil {
				return fmt.Errorf("reload %s: %w", name, err)
			}
			return nil
		})
	}

	return ewg.Wait()
}

// StartBackgroundSchedule refreshes the category every interval,
// replacing the existing schedule of the category, if any.
// Zero interval means the interval from the category's policy.
func (m *Manager) StartBackgroundSchedule(name string, interval time.Duration) {
	if interval <= 0 {
		interval = m.policy(name).Interval
	}
	if interval <= 0 {
		m.Logger.Warn("no interval for background schedule", slog.String("category", name))
		return
	}

	m.mu.Lock()
	m.category(name)
	m.mu.Unlock()

	m.schedMu.Lock()
	defer m.schedMu.Unlock()

	if stop, ok := m.schedules[name]; ok {
		stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.schedules[name] = cancel

	m.schedWG.Add(1)
	go func() {
		defer m.schedWG.Done()
		m.schedule(ctx, name, interval)
	}()
}

// StartAll starts background schedules for all known categories
// which policies define an interval.
func (m *Manager) StartAll() {
	for _, name := range m.names() {
		if m.policy(name).Interval > 0 {
			m.StartBackgroundSchedule(name, 0)
		}
	}
}

// StopBackgroundSchedule stops the schedule of the category.
// The fetch that is already in flight is not interrupted.
func (m *Manager) StopBackgroundSchedule(name string) {
	m.schedMu.Lock()
	defer m.schedMu.Unlock()

	if stop, ok := m.schedules[name]; ok {
		stop()
		delete(m.schedules, name)
	}
}

// StopAll stops all background schedules.
func (m *Manager) StopAll() {
	m.schedMu.Lock()
	defer m.schedMu.Unlock()

	for name, stop := range m.schedules {
		stop()
		delete(m.schedules, name)
	}
}

// Close stops all schedules and waits for them to exit, along with
// the fetches in flight.
func (m *Manager) Close() {
	m.StopAll()
	m.schedWG.Wait()
	m.Wait()
}

// Wait blocks until no fetch is in flight, including background ones.
// Fetches are bounded by the fetch timeout.
func (m *Manager) Wait() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.inflight > 0 {
		m.idle.Wait()
	}
}

// Categories returns names of all categories known to the manager.
func (m *Manager) Categories() []string { return m.names() }

// Stats returns the current state of every category.
func (m *Manager) Stats() []Stat {
	m.schedMu.Lock()
	scheduled := make(map[string]bool, len(m.schedules))
	for name := range m.schedules {
		scheduled[name] = true
	}
	m.schedMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	res := make([]Stat, 0, len(m.feeds))
	for name, c := range m.feeds {
		res = append(res, Stat{
			Category:  name,
			State:     c.state,
			Articles:  len(c.articles),
			FetchedAt: c.fetchedAt,
			Scheduled: scheduled[name],
		})
	}

	sort.Slice(res, func(i, j int) bool { return res[i].Category < res[j].Category })
	return res
}

func (m *Manager) schedule(ctx context.Context, name string, interval time.Duration) {
	m.Logger.Info("background schedule started",
		slog.String("category", name), slog.Duration("interval", interval))
	defer m.Logger.Info("background schedule stopped", slog.String("category", name))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Refresh(ctx, name); err != nil && !errors.Is(err, context.Canceled) {
				m.Logger.WarnCtx(ctx, "scheduled refresh failed",
					slog.String("category", name), slog.Any("err", err))
			}
		}
	}
}

// fetch starts the fetch of the page or joins the one in flight.
// Must be called with mu held: a call is in the group exactly while
// its category is loading or refreshing.
func (m *Manager) fetch(name string, page int) <-chan singleflight.Result {
	c := m.category(name)
	if c.fetching {
		// the call is in the group while fetching is set, so fn is never called
		return m.sf.DoChan(name, nil)
	}

	c.fetching = true
	m.inflight++
	resets := c.resets

	return m.sf.DoChan(name, func() (interface{}, error) {
		defer m.fetched()
		return m.load(name, page, resets)
	})
}

func (m *Manager) fetched() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inflight--; m.inflight == 0 {
		m.idle.Broadcast()
	}
}

func (m *Manager) load(name string, page, resets int) ([]store.Article, error) {
	policy := m.policy(name)

	ctx := context.Background()
	if m.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.FetchTimeout)
		defer cancel()
	}

	start := m.Clock()
	fresh, err := m.fetcher.Fetch(ctx, FetchRequest{Category: name, Page: page, Limit: policy.PageSize})

	m.mu.Lock()
	c := m.category(name)

	if page > 1 && c.resets != resets {
		// the category was reset while the older page was loading,
		// the ones that joined the call wait for the first page instead
		resets = c.resets
		m.mu.Unlock()
		m.Logger.Debug("category was reset, loading the first page instead",
			slog.String("category", name), slog.Int("dropped_page", page))
		return m.load(name, 1, resets)
	}

	// the state changes below end the call for new callers,
	// the ones that already joined still receive its result
	c.fetching = false
	m.sf.Forget(name)

	if err != nil {
		if len(c.articles) == 0 {
			c.state = StateEmpty
			m.mu.Unlock()
			m.Logger.Warn("failed to load feed", slog.String("category", name), slog.Any("err", err))
			return nil, &FetchError{Category: name, Err: err}
		}

		c.state = StatePopulated
		res := c.articles
		m.mu.Unlock()
		m.Logger.Warn("failed to refresh feed, keeping stale data",
			slog.String("category", name), slog.Int("page", page), slog.Any("err", err))
		return res, nil
	}

	res := Merge(c.articles, fresh, policy.MaxArticles)
	notify := c.baseline && page == 1 && len(res.Added) > 0

	c.articles = res.Articles
	c.state = StatePopulated
	c.baseline = true
	if page == 1 || c.fetchedAt.IsZero() {
		c.fetchedAt = start
	}
	if page > c.page {
		c.page = page
	}
	snap := store.Snapshot{Articles: c.articles, FetchedAt: c.fetchedAt}
	m.mu.Unlock()

	m.Logger.Debug("feed merged",
		slog.String("category", name),
		slog.Int("page", page),
		slog.Int("fetched", len(fresh)),
		slog.Int("added", len(res.Added)),
		slog.Int("total", len(res.Articles)))

	m.logDropped(ctx, name, res.Dropped)
	m.persist(name, snap)

	if notify && m.OnMerge != nil {
		m.OnMerge(name, clone(res.Added))
	}

	return snap.Articles, nil
}

func (m *Manager) persist(name string, snap store.Snapshot) {
	if m.Persister == nil {
		return
	}

	ctx := context.Background()
	if m.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.FetchTimeout)
		defer cancel()
	}

	if err := m.Persister.Save(ctx, name, snap); err != nil {
		m.Logger.Warn("failed to persist feed", slog.String("category", name), slog.Any("err", err))
	}
}

func (m *Manager) logDropped(ctx context.Context, name string, dropped []store.Article) {
	if len(dropped) == 0 {
		return
	}
	m.Logger.WarnCtx(ctx, "dropped articles without id, url and title",
		slog.String("category", name), slog.Int("count", len(dropped)))
}

// category returns the category by name, creating it if needed.
// Must be called with mu held.
func (m *Manager) category(name string) *category {
	c, ok := m.feeds[name]
	if !ok {
		c = &category{}
		m.feeds[name] = c
	}
	return c
}

func (m *Manager) policy(name string) Policy {
	if p, ok := m.Policies[name]; ok {
		return p
	}
	return m.DefaultPolicy
}

func (m *Manager) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := make([]string, 0, len(m.feeds))
	for name := range m.feeds {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

func wait(ctx context.Context, ch <-chan singleflight.Result) ([]store.Article, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.([]store.Article)), nil
	}
}

func clone(articles []store.Article) []store.Article {
	res := make([]store.Article, len(articles))
	copy(res, articles)
	return res
}
