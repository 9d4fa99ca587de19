package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/app/source"
	"github.com/Semior001/feedcache/app/store"
	"github.com/Semior001/feedcache/pkg/botx"
	"github.com/samber/lo"
)

var headlinesTmpl = template.Must(template.New("headlines").Parse(`*{{.Header}}*
{{range .Articles}}
• {{if .URL}}[{{.Title}}]({{.URL}}){{else}}{{.Title}}{{end}}{{if .Network}} _{{.Network}}_{{end}}, {{.PublishedAt.UTC.Format "Jan 2 15:04"}}{{end}}
`))

type headlines struct {
	Header   string
	Articles []store.Article
}

func (c *Ctrl) news(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	name, ok := c.category(req)
	if !ok {
		return c.unknownCategory(req, name), nil
	}

	articles, err := c.Feeds.EnsureFresh(ctx, name)
	if err != nil {
		return c.fetchFailed(req, name, err)
	}

	if len(articles) == 0 {
		return []botx.Response{{
			ChatID: req.Chat.ID,
			Text:   fmt.Sprintf("No news in %s yet.", escapeMarkdown(name)),
		}}, nil
	}

	return c.render(req, fmt.Sprintf("Latest in %s", name), c.page(articles))
}

// more loads the next page of the category and shows the articles
// that were not there before.
func (c *Ctrl) more(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	name, ok := c.category(req)
	if !ok {
		return c.unknownCategory(req, name), nil
	}

	before, _ := c.Feeds.Get(name)
	seen := lo.KeyBy(before, func(a store.Article) string { return a.Key() })

	articles, err := c.Feeds.LoadMore(ctx, name)
	if err != nil {
		return c.fetchFailed(req, name, err)
	}

	// the first load of the category shows the first page
	if len(before) > 0 {
		articles = lo.Filter(articles, func(a store.Article, _ int) bool {
			_, ok := seen[a.Key()]
			return !ok
		})
	}

	if len(articles) == 0 {
		return []botx.Response{{
			ChatID: req.Chat.ID,
			Text:   fmt.Sprintf("No more news in %s.", escapeMarkdown(name)),
		}}, nil
	}

	return c.render(req, fmt.Sprintf("More in %s", name), c.page(articles))
}

func (c *Ctrl) categories(_ context.Context, req botx.Request) ([]botx.Response, error) {
	sb := &strings.Builder{}
	_, _ = sb.WriteString("Categories:\n")
	for _, name := range c.Feeds.Categories() {
		_, _ = sb.WriteString(fmt.Sprintf("• %s\n", escapeMarkdown(name)))
	}

	if c.AllowClients {
		_, _ = sb.WriteString(fmt.Sprintf("\nNews of a particular client: /news %sname", source.ClientPrefix))
	}

	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   sb.String(),
	}}, nil
}

func (c *Ctrl) render(req botx.Request, header string, articles []store.Article) ([]botx.Response, error) {
	sb := &strings.Builder{}
	err := headlinesTmpl.Execute(sb, headlines{
		Header:   escapeMarkdown(header),
		Articles: lo.Map(articles, func(a store.Article, _ int) store.Article { return escapeArticle(a) }),
	})
	if err != nil {
		return nil, fmt.Errorf("execute headlines template: %w", err)
	}

	return []botx.Response{{
		ReplyToMessageID: req.MessageID,
		ChatID:           req.Chat.ID,
		Text:             sb.String(),
	}}, nil
}

func (c *Ctrl) page(articles []store.Article) []store.Article {
	if c.PageSize > 0 && len(articles) > c.PageSize {
		return articles[:c.PageSize]
	}
	return articles
}

func (c *Ctrl) unknownCategory(req botx.Request, name string) []botx.Response {
	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   fmt.Sprintf("Unknown category %s, see /categories.", escapeMarkdown(name)),
	}}
}

// fetchFailed answers the user when the category has nothing to show,
// other errors are passed through.
func (c *Ctrl) fetchFailed(req botx.Request, name string, err error) ([]botx.Response, error) {
	var fetchErr *feed.FetchError
	if !errors.As(err, &fetchErr) {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}

	return []botx.Response{{
		ChatID: req.Chat.ID,
		Text:   fmt.Sprintf("News source for %s is unavailable, please try again later.", escapeMarkdown(name)),
	}}, nil
}

var mdEscaper = strings.NewReplacer(
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	">", "\\>",
)

func escapeArticle(a store.Article) store.Article {
	a.Title = escapeMarkdown(a.Title)
	a.Network = escapeMarkdown(a.Network)
	// closing parenthesis ends the link
	a.URL = strings.NewReplacer("(", "%28", ")", "%29").Replace(a.URL)
	return a
}

func escapeMarkdown(s string) string {
	return mdEscaper.Replace(s)
}
