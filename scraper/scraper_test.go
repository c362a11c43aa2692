package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
<ul class="grants">
  <li class="grant">
    <a class="title" href="/grants/a">Community
      Arts Grant</a>
    <p class="detail">Awards up to $50,000 for local arts projects</p>
  </li>
  <li class="grant">
    <a class="title" href="https://other.example/b">Research Fund</a>
    <p class="detail">$1.2 million for research</p>
  </li>
  <li class="grant"><span>No link here</span></li>
  <li class="grant"><a class="title" href="#top"></a></li>
  <li class="grant"><a class="title" href="/grants/a">Community Arts Grant</a></li>
</ul>
</body></html>`

// Test helper: create a scraper without throttling
func createTestScraper() *Scraper {
	config := DefaultConfig()
	config.RequestInterval = 0
	return New(config)
}

// Test helper: serve fixed pages by path
func createTestServer(t *testing.T, pages map[string]string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, ".xml") {
			w.Header().Set("Content-Type", "application/rss+xml")
		} else {
			w.Header().Set("Content-Type", "text/html")
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// TestNewListConfig verifies list config creation with defaults
func TestNewListConfig(t *testing.T) {
	config := NewListConfig("li.grant")

	require.NotNil(t, config)
	assert.Equal(t, "li.grant", config.ItemSelector)
	assert.Equal(t, 1, config.MaxPages, "should default to 1 page")
	assert.Empty(t, config.PaginationSelector)
}

// TestExtractList verifies selector-based extraction
func TestExtractList(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingPage))
	require.NoError(t, err)

	config := ListConfig{
		ItemSelector:   "li.grant",
		TitleSelector:  "a.title",
		LinkSelector:   "a.title",
		DetailSelector: "p.detail",
	}
	candidates := ExtractList(doc, config, mustParseURL(t, "http://example.com/list"))

	require.Len(t, candidates, 3, "items without title or link should be skipped")
	assert.Equal(t, "Community Arts Grant", candidates[0].Title, "whitespace should be normalized")
	assert.Equal(t, "http://example.com/grants/a", candidates[0].Link, "relative link should be resolved")
	assert.Equal(t, "Awards up to $50,000 for local arts projects", candidates[0].Detail)
	assert.Equal(t, "https://other.example/b", candidates[1].Link)
}

// TestExtractList_AnchorItems verifies items that are anchors themselves
func TestExtractList_AnchorItems(t *testing.T) {
	page := `<div><a class="item" href="/one">One</a><a class="item" href="/two">Two</a></div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	candidates := ExtractList(doc, ListConfig{ItemSelector: "a.item"}, mustParseURL(t, "http://example.com/"))

	require.Len(t, candidates, 2)
	assert.Equal(t, "One", candidates[0].Title)
	assert.Equal(t, "http://example.com/one", candidates[0].Link)
}

// TestExtractPattern verifies regexp extraction with markup in titles
func TestExtractPattern(t *testing.T) {
	body := []byte(`
<div class="row"><a href="/g/1"><b>Grant</b> &amp; Award</a><span>$10k</span></div>
<div class="row"><a href="mailto:x@example.com">Email us</a><span></span></div>
<div class="row"><a href="https://x.example/g/2">Second</a><span>500万円</span></div>
`)
	re, err := compilePattern(`<a href="(?P<link>[^"]+)">(?P<title>.*?)</a><span>(?P<detail>[^<]*)</span>`)
	require.NoError(t, err)

	candidates := ExtractPattern(body, re, mustParseURL(t, "http://example.com/list"))

	require.Len(t, candidates, 2)
	assert.Equal(t, "Grant & Award", candidates[0].Title)
	assert.Equal(t, "http://example.com/g/1", candidates[0].Link)
	assert.Equal(t, "$10k", candidates[0].Detail)
	assert.Equal(t, "Second", candidates[1].Title)
	assert.Equal(t, "500万円", candidates[1].Detail)
}

// TestCompilePattern_Invalid verifies pattern validation
func TestCompilePattern_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{name: "does not compile", pattern: `(?P<title>[`},
		{name: "missing link group", pattern: `(?P<title>.*)`},
		{name: "missing title group", pattern: `(?P<link>.*)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compilePattern(tt.pattern)
			var patternErr *PatternError
			assert.ErrorAs(t, err, &patternErr)
			assert.True(t, IsPermanent(err))
		})
	}
}

// TestScrape_HTMLSelectors verifies a full fetch with dedup by title
func TestScrape_HTMLSelectors(t *testing.T) {
	server := createTestServer(t, map[string]string{"/list": listingPage})
	s := createTestScraper()

	candidates, err := s.Scrape(context.Background(), SourceConfig{
		Name: "Grants",
		Kind: KindHTML,
		URL:  server.URL + "/list",
		List: &ListConfig{ItemSelector: "li.grant", TitleSelector: "a.title", LinkSelector: "a.title"},
	})

	require.NoError(t, err)
	require.Len(t, candidates, 2, "duplicate title should be dropped")
	assert.Equal(t, server.URL+"/grants/a", candidates[0].Link)
}

// TestScrape_Pagination verifies next-page links are followed up to
// MaxPages and loops are not revisited
func TestScrape_Pagination(t *testing.T) {
	page := func(title, next string) string {
		return fmt.Sprintf(`<ul><li><a href="/%s">%s</a></li></ul><a class="next" href="%s">Next</a>`, title, title, next)
	}
	server := createTestServer(t, map[string]string{
		"/p1": page("one", "/p2"),
		"/p2": page("two", "/p3"),
		"/p3": page("three", "/p1"),
	})
	s := createTestScraper()

	src := SourceConfig{
		Kind: KindHTML,
		URL:  server.URL + "/p1",
		List: &ListConfig{ItemSelector: "li", PaginationSelector: "a.next", MaxPages: 2},
	}
	candidates, err := s.Scrape(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, candidates, 2, "should stop at MaxPages")

	src.List.MaxPages = 10
	candidates, err = s.Scrape(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, candidates, 3, "should not revisit the first page")
	assert.Equal(t, "three", candidates[2].Title)
}

// TestScrape_MaxItems verifies truncation
func TestScrape_MaxItems(t *testing.T) {
	server := createTestServer(t, map[string]string{"/list": listingPage})
	s := createTestScraper()

	candidates, err := s.Scrape(context.Background(), SourceConfig{
		Kind:     KindHTML,
		URL:      server.URL + "/list",
		List:     &ListConfig{ItemSelector: "li.grant", TitleSelector: "a.title"},
		MaxItems: 1,
	})

	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

// TestScrape_Pattern verifies pattern sources
func TestScrape_Pattern(t *testing.T) {
	server := createTestServer(t, map[string]string{"/list": listingPage})
	s := createTestScraper()

	candidates, err := s.Scrape(context.Background(), SourceConfig{
		Kind:    KindHTML,
		URL:     server.URL + "/list",
		Pattern: `<a class="title" href="(?P<link>[^"#][^"]*)">(?P<title>[^<]+)</a>`,
	})

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Community Arts Grant", candidates[0].Title)
	assert.Equal(t, "Research Fund", candidates[1].Title)
}

// TestScrape_Feed verifies RSS extraction
func TestScrape_Feed(t *testing.T) {
	rss := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Grants</title>
<item><title>Grant A</title><link>http://x/a</link><description>&lt;p&gt;Up to $2 million&lt;/p&gt;</description></item>
<item><title>Grant B</title><link>http://x/b</link></item>
<item><title>Grant A</title><link>http://x/a-again</link></item>
</channel></rss>`
	server := createTestServer(t, map[string]string{"/feed.xml": rss})
	s := createTestScraper()

	candidates, err := s.Scrape(context.Background(), SourceConfig{Kind: KindFeed, URL: server.URL + "/feed.xml"})

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Grant A", candidates[0].Title)
	assert.Equal(t, "http://x/a", candidates[0].Link)
	assert.Equal(t, "Up to $2 million", candidates[0].Detail)
	assert.Equal(t, "Grant B", candidates[1].Title)
}

// TestScrape_UserAgent verifies the configured User-Agent is sent
func TestScrape_UserAgent(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	_, err := createTestScraper().Scrape(context.Background(), SourceConfig{
		URL:  server.URL,
		List: NewListConfig("li.grant"),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().UserAgent, got.Load())
}

// TestScrape_Errors verifies error classification
func TestScrape_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/notfeed.xml":
			fmt.Fprint(w, "just some text")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()
	s := createTestScraper()
	list := NewListConfig("li")

	tests := []struct {
		name      string
		src       SourceConfig
		permanent bool
	}{
		{name: "404", src: SourceConfig{URL: server.URL + "/missing", List: list}, permanent: true},
		{name: "410", src: SourceConfig{URL: server.URL + "/gone", List: list}, permanent: true},
		{name: "500", src: SourceConfig{URL: server.URL + "/broken", List: list}, permanent: false},
		{name: "feed 404", src: SourceConfig{Kind: KindFeed, URL: server.URL + "/missing.xml"}, permanent: true},
		{name: "not a feed", src: SourceConfig{Kind: KindFeed, URL: server.URL + "/notfeed.xml"}, permanent: true},
		{name: "no extractor", src: SourceConfig{URL: server.URL + "/list"}, permanent: true},
		{name: "unknown kind", src: SourceConfig{Kind: "ftp", URL: server.URL}, permanent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Scrape(context.Background(), tt.src)
			require.Error(t, err)
			assert.Equal(t, tt.permanent, IsPermanent(err))
		})
	}
}

// TestScrape_StatusError verifies the typed status error
func TestScrape_StatusError(t *testing.T) {
	server := createTestServer(t, map[string]string{})
	_, err := createTestScraper().Scrape(context.Background(), SourceConfig{URL: server.URL + "/x", List: NewListConfig("li")})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "404 Not Found")
}

// TestScrape_RateLimited verifies page requests are spaced by the limiter
func TestScrape_RateLimited(t *testing.T) {
	server := createTestServer(t, map[string]string{
		"/p1": `<li><a href="/a">a</a></li><a class="next" href="/p2">n</a>`,
		"/p2": `<li><a href="/b">b</a></li>`,
	})
	config := DefaultConfig()
	config.RequestInterval = 100 * time.Millisecond
	s := New(config)

	start := time.Now()
	candidates, err := s.Scrape(context.Background(), SourceConfig{
		URL:  server.URL + "/p1",
		List: &ListConfig{ItemSelector: "li", PaginationSelector: "a.next", MaxPages: 2},
	})
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond, "second page should wait for the limiter")
}

// TestScrape_ContextCancelled verifies cancellation stops the fetch
func TestScrape_ContextCancelled(t *testing.T) {
	server := createTestServer(t, map[string]string{"/list": listingPage})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := createTestScraper().Scrape(ctx, SourceConfig{URL: server.URL + "/list", List: NewListConfig("li")})
	assert.Error(t, err)
}

// TestIsPermanent covers errors not produced by a live server
func TestIsPermanent(t *testing.T) {
	assert.False(t, IsPermanent(nil))
	assert.False(t, IsPermanent(errors.New("timeout")))
	assert.True(t, IsPermanent(fmt.Errorf("wrapped: %w", &net.DNSError{Err: "no such host", Name: "x.invalid", IsNotFound: true})))
	assert.False(t, IsPermanent(&net.DNSError{Err: "server misbehaving", Name: "x", IsTemporary: true}))
	assert.True(t, IsPermanent(fmt.Errorf("failed to parse feed: %w", gofeed.HTTPError{StatusCode: 404, Status: "404 Not Found"})))
	assert.False(t, IsPermanent(gofeed.HTTPError{StatusCode: 503, Status: "503 Service Unavailable"}))
}

// TestFeedToCandidates verifies gofeed item conversion
func TestFeedToCandidates(t *testing.T) {
	feed := &gofeed.Feed{
		Title: "Example",
		Items: []*gofeed.Item{
			{Title: "  Spaced   Title ", Link: "http://x/1", Description: "Plain"},
			{Title: "", Link: "http://x/2"},
		},
	}

	candidates := FeedToCandidates(feed, mustParseURL(t, "http://x/feed.xml"))

	require.Len(t, candidates, 2)
	assert.Equal(t, "Spaced Title", candidates[0].Title)
	assert.Equal(t, "Plain", candidates[0].Detail)
	assert.Empty(t, candidates[1].Title, "empty titles are left for the store to reject")
}

// TestFeedToCandidates_RelativeLinks verifies item links are resolved
// against the site link, or the feed URL when the feed has none
func TestFeedToCandidates_RelativeLinks(t *testing.T) {
	feedURL := mustParseURL(t, "https://example.org/feeds/grants.xml")

	withSite := &gofeed.Feed{
		Link: "https://grants.example.org/news/",
		Items: []*gofeed.Item{
			{Title: "Relative", Link: "/calls/1"},
			{Title: "Sibling", Link: "calls/2"},
			{Title: "Absolute", Link: "http://other.example/3"},
		},
	}
	candidates := FeedToCandidates(withSite, feedURL)
	require.Len(t, candidates, 3)
	assert.Equal(t, "https://grants.example.org/calls/1", candidates[0].Link)
	assert.Equal(t, "https://grants.example.org/news/calls/2", candidates[1].Link)
	assert.Equal(t, "http://other.example/3", candidates[2].Link)

	withoutSite := &gofeed.Feed{
		Items: []*gofeed.Item{{Title: "Relative", Link: "/calls/1"}},
	}
	candidates = FeedToCandidates(withoutSite, feedURL)
	assert.Equal(t, "https://example.org/calls/1", candidates[0].Link)
}

// TestScrape_FeedRelativeLinks verifies a feed with relative item links
// yields absolute candidates
func TestScrape_FeedRelativeLinks(t *testing.T) {
	rss := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Grants</title>
<item><title>Grant A</title><link>/grants/a</link></item>
</channel></rss>`
	server := createTestServer(t, map[string]string{"/feed.xml": rss})
	s := createTestScraper()

	candidates, err := s.Scrape(context.Background(), SourceConfig{Kind: KindFeed, URL: server.URL + "/feed.xml"})

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, server.URL+"/grants/a", candidates[0].Link)
}

// TestResolveURL verifies href resolution
func TestResolveURL(t *testing.T) {
	base := mustParseURL(t, "http://example.com/list/page")

	tests := []struct {
		href     string
		expected string
	}{
		{href: "/a", expected: "http://example.com/a"},
		{href: "b", expected: "http://example.com/list/b"},
		{href: "https://other.example/c#frag", expected: "https://other.example/c"},
		{href: "#top", expected: ""},
		{href: "", expected: ""},
		{href: "mailto:x@example.com", expected: ""},
		{href: "javascript:void(0)", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveURL(base, tt.href))
		})
	}
}
