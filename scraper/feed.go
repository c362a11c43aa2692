package scraper

import (
	"net/url"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/grantfeed/store"
)

// FeedItemToCandidate converts an RSS or Atom item. gofeed normalizes both
// formats: <link> (RSS) and <link rel="alternate"> (Atom) land in Link,
// <description> and <summary> in Description. Relative links are resolved
// against base.
func FeedItemToCandidate(item *gofeed.Item, base *url.URL) store.Candidate {
	return store.Candidate{
		Title:  htmlText(item.Title),
		Link:   resolveURL(base, item.Link),
		Detail: htmlText(item.Description),
	}
}

// FeedToCandidates converts every item of feed, which was fetched from
// feedURL. Item links are resolved against the feed's site link when it has
// one, else against feedURL. Items without a title or link are kept here
// and rejected by the store at merge time.
func FeedToCandidates(feed *gofeed.Feed, feedURL *url.URL) []store.Candidate {
	base := feedURL
	if feed.Link != "" {
		if site := resolveURL(feedURL, feed.Link); site != "" {
			if u, err := url.Parse(site); err == nil {
				base = u
			}
		}
	}

	candidates := make([]store.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		candidates = append(candidates, FeedItemToCandidate(item, base))
	}
	return candidates
}
