package scraper

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/mmcdole/gofeed"
)

var (
	// ErrNoExtractor is returned for an HTML source with neither selectors
	// nor a pattern.
	ErrNoExtractor = errors.New("html source requires list selectors or a pattern")

	// ErrUnsupportedKind is returned for a source kind other than html or feed.
	ErrUnsupportedKind = errors.New("source kind must be html or feed")
)

// StatusError is returned when a page responds with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error fetching %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// PatternError is returned when a source pattern does not compile or lacks
// the required groups.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err will keep failing on retry: the page is
// gone, the host does not exist, the document is not a feed, or the source
// itself is misconfigured. Everything else (timeouts, 5xx) is transient.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusGone
	}

	var feedErr gofeed.HTTPError
	if errors.As(err, &feedErr) {
		return feedErr.StatusCode == http.StatusNotFound || feedErr.StatusCode == http.StatusGone
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}

	var patternErr *PatternError
	if errors.As(err, &patternErr) {
		return true
	}

	return errors.Is(err, gofeed.ErrFeedTypeNotDetected) ||
		errors.Is(err, ErrNoExtractor) ||
		errors.Is(err, ErrUnsupportedKind)
}
