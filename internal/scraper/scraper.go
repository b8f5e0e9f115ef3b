// Package scraper fetches recipe pages and pulls out their schema.org data
// and readable text.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pageza/larder/backend/internal/ai"
	"github.com/pageza/larder/backend/internal/extraction"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	MaxTextLength  = 15000
	RequestTimeout = 30 * time.Second
	MaxRedirects   = 5
	maxBodyBytes   = 5 << 20
	userAgent      = "Larder/1.0 (recipe import)"
)

// Page is the useful content of one fetched URL.
type Page struct {
	FinalURL string
	Text     string
	// Recipe is the schema.org Recipe node, nil when the page has none.
	Recipe map[string]interface{}
}

// Scraper fetches pages over HTTP.
type Scraper struct {
	client *http.Client
}

func New() *Scraper {
	return &Scraper{client: &http.Client{
		Timeout: RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", MaxRedirects)
			}
			return nil
		},
	}}
}

// Fetch downloads url. Failures are *ai.Error values of kind blocked or
// fetch_failed.
func (s *Scraper) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ai.NewError(ai.KindFetchFailed, "", "invalid URL: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, ai.NewError(ai.KindFetchFailed, "", "request timed out after %s", RequestTimeout)
		}
		return nil, &ai.Error{Kind: ai.KindFetchFailed, Message: "failed to fetch URL", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, ai.NewError(ai.KindBlocked, "", "access blocked (403 Forbidden)")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ai.NewError(ai.KindBlocked, "", "rate limited (429 Too Many Requests)")
	case resp.StatusCode == http.StatusNotFound:
		return nil, ai.NewError(ai.KindFetchFailed, "", "page not found (404)")
	case resp.StatusCode >= 500:
		return nil, ai.NewError(ai.KindFetchFailed, "", "server error (%d)", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, ai.NewError(ai.KindFetchFailed, "", "HTTP error (%d)", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ai.Error{Kind: ai.KindFetchFailed, Message: "failed to read page", Err: err}
	}

	page, err := Parse(body)
	if err != nil {
		return nil, &ai.Error{Kind: ai.KindFetchFailed, Message: "failed to parse page", Err: err}
	}
	page.FinalURL = resp.Request.URL.String()
	return page, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// skipped elements hold no recipe text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Noscript: true,
}

// Parse extracts the schema.org recipe and visible text from an HTML document.
func Parse(doc []byte) (*Page, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}

	page := &Page{}
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Script && attr(n, "type") == "application/ld+json" {
				if page.Recipe == nil {
					page.Recipe = recipeFromJSONLD(nodeText(n))
				}
				return
			}
			if skipped[n.DataAtom] {
				return
			}
		}
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	page.Text = truncate(strings.Join(lines, "\n"), MaxTextLength)
	return page, nil
}

func recipeFromJSONLD(raw string) map[string]interface{} {
	var data interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	node, ok := extraction.FindRecipeNode(data)
	if !ok {
		return nil
	}
	return node
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.ToLower(strings.TrimSpace(a.Val))
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
