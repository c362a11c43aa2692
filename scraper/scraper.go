// Package scraper turns a listing page or an RSS/Atom feed into merge
// candidates.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/pevans/grantfeed/store"
	"golang.org/x/time/rate"
)

// Scraper fetches sources over HTTP. Page requests are spaced by a shared
// rate limiter.
type Scraper struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// New creates a Scraper. A nil config uses DefaultConfig.
func New(config *Config) *Scraper {
	if config == nil {
		config = DefaultConfig()
	}

	limit := rate.Inf
	if config.RequestInterval > 0 {
		limit = rate.Every(config.RequestInterval)
	}

	return &Scraper{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		userAgent: config.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Scrape fetches src and returns its candidates in page order, without
// duplicate titles and cut to src.MaxItems.
func (s *Scraper) Scrape(ctx context.Context, src SourceConfig) ([]store.Candidate, error) {
	var candidates []store.Candidate
	var err error

	switch src.Kind {
	case KindFeed:
		candidates, err = s.scrapeFeed(ctx, src)
	case KindHTML, "":
		candidates, err = s.scrapeHTML(ctx, src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, src.Kind)
	}
	if err != nil {
		return nil, err
	}

	return dedupe(candidates, src.MaxItems), nil
}

// scrapeHTML walks the listing pages of src, following the pagination link
// up to MaxPages.
func (s *Scraper) scrapeHTML(ctx context.Context, src SourceConfig) ([]store.Candidate, error) {
	var pattern *regexp.Regexp
	if src.Pattern != "" {
		var err error
		pattern, err = compilePattern(src.Pattern)
		if err != nil {
			return nil, err
		}
	} else if src.List == nil || src.List.ItemSelector == "" {
		return nil, ErrNoExtractor
	}

	maxPages := 1
	paginationSelector := ""
	if src.List != nil {
		paginationSelector = src.List.PaginationSelector
		if src.List.MaxPages > 1 {
			maxPages = src.List.MaxPages
		}
	}

	var candidates []store.Candidate
	visited := make(map[string]bool)
	pageURL := src.URL

	for page := 0; page < maxPages && pageURL != ""; page++ {
		visited[pageURL] = true

		body, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML from %s: %w", pageURL, err)
		}

		base, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page URL %s: %w", pageURL, err)
		}

		if pattern != nil {
			candidates = append(candidates, ExtractPattern(body, pattern, base)...)
		} else {
			candidates = append(candidates, ExtractList(doc, *src.List, base)...)
		}

		if src.MaxItems > 0 && len(candidates) >= src.MaxItems {
			break
		}

		pageURL = ""
		if paginationSelector != "" {
			if href, ok := doc.Find(paginationSelector).First().Attr("href"); ok {
				next := resolveURL(base, href)
				if next != "" && !visited[next] {
					pageURL = next
				}
			}
		}
	}

	return candidates, nil
}

// fetchPage waits for the limiter, then fetches pageURL and returns the
// response body.
func (s *Scraper) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// scrapeFeed fetches an RSS or Atom feed. gofeed detects the format.
func (s *Scraper) scrapeFeed(ctx context.Context, src SourceConfig) ([]store.Candidate, error) {
	feedURL, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL %s: %w", src.URL, err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	fp := gofeed.NewParser()
	fp.Client = s.client
	fp.UserAgent = s.userAgent

	feed, err := fp.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return FeedToCandidates(feed, feedURL), nil
}

// dedupe drops repeated titles, keeping the first, and truncates to limit
// when limit > 0.
func dedupe(candidates []store.Candidate, limit int) []store.Candidate {
	seen := make(map[string]bool, len(candidates))
	result := make([]store.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.Title] {
			continue
		}
		seen[c.Title] = true
		result = append(result, c)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// resolveURL resolves href against base. It returns "" for hrefs that do
// not lead to a web page (fragments, mailto:, javascript:).
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// normalizeText collapses runs of whitespace to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
