// Package news scrapes the education news feed and caches it in process.
package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/ratelimit"
)

const (
	maxItems     = 20
	fetchTimeout = 15 * time.Second
	userAgent    = "EduBase/1.0 (+news feed)"
)

// Fetcher downloads and parses the news source page.
type Fetcher struct {
	client  *http.Client
	feedURL string
	limiter *ratelimit.KeyedRateLimiter
}

// NewFetcher creates a fetcher for the given source page. Outbound requests
// are rate limited so a busy instance never hammers the news site.
func NewFetcher(feedURL string) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: fetchTimeout},
		feedURL: feedURL,
		limiter: ratelimit.New(1, 2),
	}
}

// Close releases the fetcher's rate limiter.
func (f *Fetcher) Close() {
	f.limiter.Stop()
}

// Fetch downloads the source page and extracts up to maxItems articles.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.NewsItem, error) {
	if err := f.limiter.Wait(ctx, "feed"); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	base, err := url.Parse(f.feedURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed html: %w", err)
	}

	return extractArticles(doc, base), nil
}

// extractArticles walks the DOM collecting <article> elements. Each article
// contributes a title (first heading), link (first anchor), image, summary
// (first paragraph, converted to markdown), and date (first <time>).
func extractArticles(doc *html.Node, base *url.URL) []domain.NewsItem {
	var items []domain.NewsItem

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(items) >= maxItems {
			return
		}
		if n.Type == html.ElementNode && n.Data == "article" {
			if item, ok := parseArticle(n, base); ok {
				items = append(items, item)
			}
			return // Nested articles are noise.
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return items
}

func parseArticle(article *html.Node, base *url.URL) (domain.NewsItem, bool) {
	var item domain.NewsItem

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4":
				if item.Title == "" {
					item.Title = textContent(n)
				}
			case "a":
				if item.URL == "" {
					if href := attr(n, "href"); href != "" {
						item.URL = resolveURL(base, href)
					}
				}
			case "img":
				if item.Image == "" {
					if src := attr(n, "src"); src != "" {
						item.Image = resolveURL(base, src)
					}
				}
			case "p":
				if item.Summary == "" {
					item.Summary = summarize(n)
				}
			case "time":
				if item.PublishedAt == "" {
					if dt := attr(n, "datetime"); dt != "" {
						item.PublishedAt = dt
					} else {
						item.PublishedAt = textContent(n)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(article)

	if item.Title == "" || item.URL == "" {
		return domain.NewsItem{}, false
	}
	return item, true
}

// summarize renders a node's inner HTML as markdown so inline formatting
// (links, emphasis) survives into the client.
func summarize(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		//nolint:errcheck // strings.Builder never errors
		_ = html.Render(&sb, c)
	}
	raw := sb.String()

	markdown, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		return strings.TrimSpace(textContent(n))
	}
	return strings.TrimSpace(markdown)
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
