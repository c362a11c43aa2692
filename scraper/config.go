package scraper

import "time"

// Source kinds.
const (
	KindHTML = "html"
	KindFeed = "feed"
)

// SourceConfig describes one listing page or feed to pull candidates from.
type SourceConfig struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"` // "html" or "feed"
	URL  string `yaml:"url" json:"url"`
	// Selectors for HTML listing pages. Ignored for feeds.
	List *ListConfig `yaml:"list,omitempty" json:"list,omitempty"`
	// Regular expression with named groups "title" and "link" (and
	// optionally "detail"), applied to the raw page body. When set it
	// replaces the item selectors; List.PaginationSelector still applies.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	// Maximum number of candidates kept per fetch, 0 for no limit
	MaxItems int `yaml:"max_items,omitempty" json:"max_items,omitempty"`
}

// ListConfig defines how to find items on a listing page.
type ListConfig struct {
	ItemSelector       string `yaml:"item_selector" json:"item_selector"`
	TitleSelector      string `yaml:"title_selector,omitempty" json:"title_selector,omitempty"`
	LinkSelector       string `yaml:"link_selector,omitempty" json:"link_selector,omitempty"`
	DetailSelector     string `yaml:"detail_selector,omitempty" json:"detail_selector,omitempty"`
	PaginationSelector string `yaml:"pagination_selector,omitempty" json:"pagination_selector,omitempty"`
	MaxPages           int    `yaml:"max_pages,omitempty" json:"max_pages,omitempty"` // Default: 1
}

// NewListConfig creates a new list configuration with default values.
func NewListConfig(itemSelector string) *ListConfig {
	return &ListConfig{
		ItemSelector: itemSelector,
		MaxPages:     1,
	}
}

// Config holds HTTP settings shared by every fetch.
type Config struct {
	// Timeout per HTTP request
	Timeout time.Duration
	// User-Agent header sent with every request
	UserAgent string
	// Minimum spacing between page requests, 0 disables throttling
	RequestInterval time.Duration
}

// DefaultConfig returns the default HTTP settings.
func DefaultConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		UserAgent:       "grantfeed/1.0 (listing and feed watcher)",
		RequestInterval: 1 * time.Second,
	}
}
