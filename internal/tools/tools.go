// Package tools provides the MCP-style tool services of §6: search, fetch,
// sql and clock. Agents invoke these, not the core directly — from the
// core's view a tool call looks exactly like an LLM call (same timing and
// failure modes), so Services returns them behind one narrow interface.
package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/hanriver/tradepilot/internal/errs"
)

// SearchResult is one hit from Services.Search.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Services bundles the four MCP-style tools an agent may call.
type Services interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
	Fetch(ctx context.Context, url string) (string, error)
	SQL(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Clock(ctx context.Context) time.Time
}

// HTTPServices implements Services over resty for search/fetch and an
// optional *sql.DB for sql(), matching CortexGo's news_scraper.go use of
// goquery for HTML scraping when a source has no JSON API.
type HTTPServices struct {
	http         *resty.Client
	db           *sql.DB
	searchAPIURL string
}

func NewHTTPServices(db *sql.DB, searchAPIURL string, timeout time.Duration) *HTTPServices {
	client := resty.New().SetTimeout(timeout)
	return &HTTPServices{http: client, db: db, searchAPIURL: searchAPIURL}
}

func (s *HTTPServices) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if s.searchAPIURL == "" {
		return nil, errs.Permanent("no search backend configured", nil)
	}
	var out struct {
		Results []SearchResult `json:"results"`
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&out).
		Get(s.searchAPIURL)
	if err != nil {
		return nil, errs.Transient("search request failed", err)
	}
	if resp.IsError() {
		return nil, classifyHTTPStatus(resp.StatusCode(), "search")
	}
	return out.Results, nil
}

// Fetch retrieves a URL and, for HTML content, strips markup down to
// visible text via goquery — the same fallback CortexGo's news scraper uses
// when a news source publishes no JSON API.
func (s *HTTPServices) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := s.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", errs.Transient("fetch request failed", err)
	}
	if resp.IsError() {
		return "", classifyHTTPStatus(resp.StatusCode(), "fetch")
	}

	body := resp.String()
	ct := resp.Header().Get("Content-Type")
	if ct == "" || containsHTML(ct) {
		if doc, perr := goquery.NewDocumentFromReader(strings.NewReader(body)); perr == nil {
			return doc.Find("body").Text(), nil
		}
	}
	return body, nil
}

func (s *HTTPServices) SQL(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.db == nil {
		return nil, errs.Permanent("no sql backend configured", nil)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Permanent("sql query failed", err)
	}
	return rows, nil
}

func (s *HTTPServices) Clock(ctx context.Context) time.Time { return time.Now() }

func containsHTML(contentType string) bool {
	for _, want := range []string{"text/html", "application/xhtml"} {
		if len(contentType) >= len(want) && contentType[:len(want)] == want {
			return true
		}
	}
	return false
}

func classifyHTTPStatus(status int, op string) error {
	msg := fmt.Sprintf("%s: upstream status %d", op, status)
	if status == 429 || status >= 500 {
		return errs.Transient(msg, nil)
	}
	return errs.Permanent(msg, nil)
}
