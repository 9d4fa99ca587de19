package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/app/store"
	"golang.org/x/exp/slog"
)

// Feed is a command to print articles of a single category.
type Feed struct {
	Category string `long:"category" short:"c" default:"all" description:"category to print"`
	Pages    int    `long:"pages" default:"1" description:"number of pages to load"`
	JSON     bool   `long:"json" description:"print articles as json"`
	Persist  bool   `long:"persist" description:"use and update the snapshot in the storage"`

	Source SourceGroup `group:"source" namespace:"source" env-namespace:"SOURCE"`
	Feed   FeedGroup   `group:"feed" namespace:"feed" env-namespace:"FEED"`
	Store  StoreGroup  `group:"store" namespace:"store" env-namespace:"STORE"`
}

// Execute runs the command.
func (f Feed) Execute(_ []string) error {
	lg := slog.Default()

	fetcher, _, err := f.Source.Fetcher(lg)
	if err != nil {
		return fmt.Errorf("make fetcher: %w", err)
	}

	opts := append(f.Feed.Options(), feed.WithLogger(lg.With(slog.String("prefix", "feed"))))

	if f.Persist {
		s, err := f.Store.Open()
		if err != nil {
			return fmt.Errorf("make store: %w", err)
		}
		defer func() {
			if err := s.Close(); err != nil {
				lg.Error("close store", slog.Any("err", err))
			}
		}()
		opts = append(opts, feed.WithPersister(s))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return f.run(ctx, feed.NewManager(fetcher, opts...), os.Stdout)
}

func (f Feed) run(ctx context.Context, mgr *feed.Manager, w io.Writer) error {
	defer mgr.Close()

	mgr.Hydrate(ctx)

	if _, err := mgr.EnsureFresh(ctx, f.Category); err != nil {
		return fmt.Errorf("get %s: %w", f.Category, err)
	}

	// a stale snapshot is refreshed in background, the output should
	// have its result
	mgr.Wait()
	articles, _ := mgr.Get(f.Category)

	for page := 1; page < f.Pages; page++ {
		var err error
		if articles, err = mgr.LoadMore(ctx, f.Category); err != nil {
			return fmt.Errorf("load page %d of %s: %w", page+1, f.Category, err)
		}
	}

	if f.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(articles); err != nil {
			return fmt.Errorf("encode articles: %w", err)
		}
		return nil
	}

	return printArticles(w, articles)
}

func printArticles(w io.Writer, articles []store.Article) error {
	sb := &strings.Builder{}
	for _, a := range articles {
		_, _ = fmt.Fprintf(sb, "%s  %s", a.PublishedAt.UTC().Format(time.RFC3339), a.Title)
		if a.Network != "" {
			_, _ = fmt.Fprintf(sb, " [%s]", a.Network)
		}
		_, _ = sb.WriteString("\n")
		if a.URL != "" {
			_, _ = fmt.Fprintf(sb, "    %s\n", a.URL)
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write articles: %w", err)
	}
	return nil
}
