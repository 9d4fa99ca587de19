// Package source contains remote sources of news articles.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Semior001/feedcache/app/feed"
	"github.com/Semior001/feedcache/app/store"
	"github.com/Semior001/feedcache/pkg/logx"
	"github.com/go-pkgz/requester"
	"github.com/go-pkgz/requester/middleware"
	"golang.org/x/exp/slog"
)

// ClientPrefix marks categories that filter news by a client (network).
const ClientPrefix = "client:"

// HTTP loads articles from the news REST API.
type HTTP struct {
	log     *slog.Logger
	cl      *requester.Requester
	baseURL string
}

// NewHTTP makes a new news API client.
func NewHTTP(lg *slog.Logger, cl http.Client, baseURL, token string) *HTTP {
	mws := []middleware.RoundTripperHandler{
		logx.LoggingRoundTripper(lg, logx.RoundTripperOpts{
			Level:         slog.LevelDebug,
			SecretHeaders: []string{"Authorization"},
		}),
		middleware.Header("Accept", "application/json"),
	}
	if token != "" {
		mws = append(mws, middleware.Header("Authorization", "Bearer "+token))
	}

	return &HTTP{
		log:     lg,
		cl:      requester.New(cl, mws...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

type newsResponse struct {
	Articles []store.Article `json:"articles"`
}

// Fetch loads a single page of the category.
func (h *HTTP) Fetch(ctx context.Context, req feed.FetchRequest) ([]store.Article, error) {
	q := url.Values{}
	if network, ok := strings.CutPrefix(req.Category, ClientPrefix); ok {
		q.Set("category", "all")
		q.Set("network", network)
	} else {
		q.Set("category", req.Category)
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}

	u := h.baseURL + "/news?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := h.cl.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			h.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return nil, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	var body newsResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return normalize(req.Category, body.Articles), nil
}

func normalize(category string, articles []store.Article) []store.Article {
	res := make([]store.Article, 0, len(articles))
	for _, a := range articles {
		a = a.Normalize()
		if a.Category == "" {
			a.Category = category
		}
		res = append(res, a)
	}
	sortNewestFirst(res)
	return res
}
