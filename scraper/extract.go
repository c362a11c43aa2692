package scraper

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/grantfeed/store"
)

// ExtractList extracts candidates from a parsed listing page. Each match of
// ItemSelector yields one candidate: the title is the text of TitleSelector
// (or of the whole item), the link is the href of LinkSelector, falling back
// to the item itself and then to its first anchor. Items without a title or
// a usable link are skipped.
func ExtractList(doc *goquery.Document, config ListConfig, base *url.URL) []store.Candidate {
	var candidates []store.Candidate

	doc.Find(config.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		titleSel := item
		if config.TitleSelector != "" {
			titleSel = item.Find(config.TitleSelector).First()
		}
		title := normalizeText(titleSel.Text())
		if title == "" {
			return
		}

		link := ""
		if config.LinkSelector != "" {
			if href, ok := item.Find(config.LinkSelector).First().Attr("href"); ok {
				link = resolveURL(base, href)
			}
		}
		if link == "" {
			if href, ok := item.Attr("href"); ok {
				link = resolveURL(base, href)
			}
		}
		if link == "" {
			if href, ok := item.Find("a[href]").First().Attr("href"); ok {
				link = resolveURL(base, href)
			}
		}
		if link == "" {
			return
		}

		detail := ""
		if config.DetailSelector != "" {
			detail = normalizeText(item.Find(config.DetailSelector).Text())
		}

		candidates = append(candidates, store.Candidate{
			Title:  title,
			Link:   link,
			Detail: detail,
		})
	})

	return candidates
}

// compilePattern compiles a source pattern and checks it captures both
// title and link.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	if re.SubexpIndex("title") < 0 || re.SubexpIndex("link") < 0 {
		return nil, &PatternError{
			Pattern: pattern,
			Err:     errors.New(`pattern must have named groups "title" and "link"`),
		}
	}
	return re, nil
}

// ExtractPattern applies re to the raw page body. Captured titles may
// contain markup; tags are stripped and entities decoded.
func ExtractPattern(body []byte, re *regexp.Regexp, base *url.URL) []store.Candidate {
	titleIdx := re.SubexpIndex("title")
	linkIdx := re.SubexpIndex("link")
	detailIdx := re.SubexpIndex("detail")

	var candidates []store.Candidate
	for _, m := range re.FindAllSubmatch(body, -1) {
		title := htmlText(string(m[titleIdx]))
		link := resolveURL(base, htmlText(string(m[linkIdx])))
		if title == "" || link == "" {
			continue
		}

		detail := ""
		if detailIdx >= 0 {
			detail = htmlText(string(m[detailIdx]))
		}

		candidates = append(candidates, store.Candidate{
			Title:  title,
			Link:   link,
			Detail: detail,
		})
	}

	return candidates
}

// htmlText returns the normalized text content of an HTML fragment.
func htmlText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return normalizeText(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return normalizeText(fragment)
	}
	return normalizeText(doc.Text())
}
