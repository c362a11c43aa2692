// Package store holds the record store: a de-duplicated, size-capped,
// newest-first list of discovered items that is reloaded and rewritten in
// full on every run.
package store

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"

	"charm.land/log/v2"
	"github.com/google/uuid"
)

// DefaultCap is the maximum number of items kept when Config.Cap is unset.
const DefaultCap = 1000

// Config holds the tunables of a Store.
type Config struct {
	// Maximum number of items retained; the oldest are dropped first
	Cap int
	// Logger for load recovery and skipped candidates
	Logger *log.Logger
	// Clock used to stamp newly merged items
	Now func() time.Time
}

// DefaultConfig returns a Config with the default cap, a discarding logger
// and the wall clock.
func DefaultConfig() *Config {
	return &Config{
		Cap:    DefaultCap,
		Logger: log.New(io.Discard),
		Now:    time.Now,
	}
}

// Store merges candidates into the item list and moves it to and from a
// Backend. It holds no items itself; callers pass the list returned by Load
// through Merge and into Persist.
type Store struct {
	backend Backend
	config  *Config
}

// New creates a Store over backend. Zero fields of config fall back to
// DefaultConfig.
func New(backend Backend, config *Config) *Store {
	cfg := DefaultConfig()
	if config != nil {
		if config.Cap > 0 {
			cfg.Cap = config.Cap
		}
		if config.Logger != nil {
			cfg.Logger = config.Logger
		}
		if config.Now != nil {
			cfg.Now = config.Now
		}
	}

	return &Store{
		backend: backend,
		config:  cfg,
	}
}

// Cap returns the maximum number of items the store retains.
func (s *Store) Cap() int {
	return s.config.Cap
}

// Load reads the persisted items. It never fails: missing state is the
// normal first-run condition and unreadable state is logged and discarded,
// both yielding an empty list. Loaded items are normalized so that titles
// are unique and the cap holds even if the state was written under a
// larger cap.
func (s *Store) Load(ctx context.Context) []Item {
	items, err := s.backend.Load(ctx)
	if errors.Is(err, ErrNoState) {
		s.config.Logger.Info("No persisted state, starting empty")
		return []Item{}
	}
	if err != nil {
		s.config.Logger.Warn("Discarding unreadable state, starting empty", "err", err)
		return []Item{}
	}

	seen := make(map[string]bool, len(items))
	result := make([]Item, 0, min(len(items), s.config.Cap))
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" || seen[item.Title] {
			s.config.Logger.Warn("Dropping invalid persisted item", "title", item.Title, "link", item.Link)
			continue
		}
		seen[item.Title] = true
		result = append(result, item)
		if len(result) == s.config.Cap {
			break
		}
	}

	return result
}

// Merge folds candidates into items and returns the new list along with the
// number of items added. The input slice is not modified.
//
// Candidates are taken in order. One is skipped when its title is empty,
// its link is not an absolute http(s) URL, or its title is already present,
// counting titles added earlier in the same call. The added items keep
// their input order and go in front of the existing ones as a single block,
// so merging [A, B, C] into [X, Y] gives [A, B, C, X, Y]. The result is then
// cut to the cap, evicting from the tail.
func (s *Store) Merge(items []Item, candidates []Candidate) ([]Item, int) {
	seen := make(map[string]bool, len(items)+len(candidates))
	for _, item := range items {
		seen[item.Title] = true
	}

	today := s.config.Now().Format(DateLayout)
	var added []Item
	for _, c := range candidates {
		if err := validateCandidate(c); err != nil {
			s.config.Logger.Debug("Skipping candidate", "title", c.Title, "link", c.Link, "err", err)
			continue
		}
		if seen[c.Title] {
			continue
		}
		seen[c.Title] = true

		added = append(added, Item{
			ID:             uuid.New(),
			Title:          c.Title,
			Link:           c.Link,
			DiscoveredDate: today,
			Category:       c.Category,
			Tier:           c.Tier,
		})
	}

	merged := make([]Item, 0, min(len(added)+len(items), s.config.Cap))
	merged = append(merged, added...)
	merged = append(merged, items...)
	if len(merged) > s.config.Cap {
		merged = merged[:s.config.Cap]
	}

	return merged, min(len(added), s.config.Cap)
}

// Persist writes items to the backend, replacing whatever was there. A
// failure is returned as a *PersistError.
func (s *Store) Persist(ctx context.Context, items []Item) error {
	if err := s.backend.Save(ctx, items); err != nil {
		return &PersistError{Count: len(items), Err: err}
	}
	return nil
}

var (
	errEmptyTitle  = errors.New("title is empty")
	errInvalidLink = errors.New("link must be an absolute http or https URL")
)

// validateCandidate rejects candidates that cannot become an Item.
func validateCandidate(c Candidate) error {
	if strings.TrimSpace(c.Title) == "" {
		return errEmptyTitle
	}

	u, err := url.Parse(c.Link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errInvalidLink
	}

	return nil
}
