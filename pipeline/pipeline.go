// Package pipeline runs one fetch, merge, persist and render cycle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"charm.land/log/v2"
	"github.com/pevans/grantfeed/classify"
	"github.com/pevans/grantfeed/render"
	"github.com/pevans/grantfeed/scraper"
	"github.com/pevans/grantfeed/store"
)

var (
	// ErrNoSources is returned when the run has nothing to fetch.
	ErrNoSources = errors.New("no sources configured")

	// ErrFetchFailed is returned when every source failed. The store is
	// left untouched.
	ErrFetchFailed = errors.New("all sources failed to fetch")
)

// RenderError reports that the page could not be written.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Fetcher produces candidates for a source. *scraper.Scraper implements it.
type Fetcher interface {
	Scrape(ctx context.Context, src scraper.SourceConfig) ([]store.Candidate, error)
}

// Config holds the settings of a Runner.
type Config struct {
	Sources []scraper.SourceConfig
	// Annotate candidates with a category and tier before merging
	Classify bool
	// Path of the HTML page, empty to skip rendering
	OutputHTML string
	// Page heading
	Title  string
	Logger *log.Logger
	Now    func() time.Time
}

// SourceError records a source that failed during a run.
type SourceError struct {
	Source    scraper.SourceConfig
	Err       error
	Permanent bool
}

// Result summarizes a run. Items is the store as it stands after the run,
// whether or not it was persisted.
type Result struct {
	SourcesFetched int
	SourcesFailed  int
	Candidates     int
	NewItems       int
	Persisted      bool
	Rendered       bool
	Items          []store.Item
	SourceErrors   []SourceError
}

// Runner performs runs against one store.
type Runner struct {
	store   *store.Store
	fetcher Fetcher
	config  *Config
}

// NewRunner creates a Runner.
func NewRunner(st *store.Store, fetcher Fetcher, config *Config) *Runner {
	cfg := *config
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Runner{
		store:   st,
		fetcher: fetcher,
		config:  &cfg,
	}
}

// Run loads the store, fetches every source, merges what was found,
// persists the result and renders the page.
//
// A failing source does not stop the others. If all of them fail nothing
// is merged or persisted, the page is rendered from the loaded items, and
// ErrFetchFailed is returned. A persist failure does not prevent rendering;
// it is returned as a *store.PersistError. A render failure is returned as
// a *RenderError. The Result is always non-nil.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	logger := r.config.Logger

	if len(r.config.Sources) == 0 {
		return result, ErrNoSources
	}

	items := r.store.Load(ctx)
	logger.Info("Loaded store", "items", len(items), "cap", r.store.Cap())

	candidates := r.fetchAll(ctx, result)
	result.Candidates = len(candidates)

	if result.SourcesFetched == 0 {
		logger.Error("Every source failed, keeping the store as it was", "sources", result.SourcesFailed)
		result.Items = items
		return result, errors.Join(ErrFetchFailed, r.render(result))
	}

	if r.config.Classify {
		candidates = annotate(candidates)
	}

	items, result.NewItems = r.store.Merge(items, candidates)
	result.Items = items
	logger.Info("Merged candidates", "candidates", len(candidates), "new", result.NewItems, "total", len(items))

	persistErr := r.store.Persist(ctx, items)
	if persistErr != nil {
		logger.Error("Store not saved, this run's items will not carry over", "err", persistErr)
	} else {
		result.Persisted = true
	}

	return result, errors.Join(persistErr, r.render(result))
}

// fetchAll scrapes every source in order and concatenates the candidates.
func (r *Runner) fetchAll(ctx context.Context, result *Result) []store.Candidate {
	logger := r.config.Logger

	var candidates []store.Candidate
	for _, src := range r.config.Sources {
		startTime := time.Now()

		found, err := r.fetcher.Scrape(ctx, src)
		duration := time.Since(startTime)
		if err != nil {
			permanent := scraper.IsPermanent(err)
			result.SourcesFailed++
			result.SourceErrors = append(result.SourceErrors, SourceError{
				Source:    src,
				Err:       err,
				Permanent: permanent,
			})
			if permanent {
				logger.Warn("Source failed permanently, check its configuration", "source", src.Name, "url", src.URL, "err", err)
			} else {
				logger.Warn("Source failed", "source", src.Name, "url", src.URL, "err", err)
			}
			continue
		}

		result.SourcesFetched++
		logger.Info("Fetched source", "source", src.Name, "url", src.URL, "candidates", len(found), "duration", duration)
		candidates = append(candidates, found...)
	}

	return candidates
}

// render writes the HTML page when an output path is configured.
func (r *Runner) render(result *Result) error {
	if r.config.OutputHTML == "" {
		return nil
	}

	page := render.Page{
		Title:       r.config.Title,
		GeneratedAt: r.config.Now(),
		Items:       result.Items,
		NewCount:    result.NewItems,
	}
	if err := render.WriteHTML(r.config.OutputHTML, page); err != nil {
		r.config.Logger.Error("Page not written", "path", r.config.OutputHTML, "err", err)
		return &RenderError{Path: r.config.OutputHTML, Err: err}
	}

	result.Rendered = true
	r.config.Logger.Info("Wrote page", "path", r.config.OutputHTML, "items", len(result.Items))
	return nil
}

// annotate classifies each candidate from its title and detail text.
func annotate(candidates []store.Candidate) []store.Candidate {
	annotated := make([]store.Candidate, len(candidates))
	for i, c := range candidates {
		cl := classify.Classify(c.Title + " " + c.Detail)
		c.Category = string(cl.Category)
		c.Tier = string(cl.Tier)
		annotated[i] = c
	}
	return annotated
}

// ExitCode maps a Run error to a process exit status: 0 success, 1 setup
// problem, 2 every source failed, 3 persist failed, 4 render failed.
// When several apply the lowest-numbered failure after setup wins.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var persistErr *store.PersistError
	var renderErr *RenderError
	switch {
	case errors.Is(err, ErrFetchFailed):
		return 2
	case errors.As(err, &persistErr):
		return 3
	case errors.As(err, &renderErr):
		return 4
	default:
		return 1
	}
}
