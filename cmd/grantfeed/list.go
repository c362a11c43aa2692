package main

import (
	"time"

	"github.com/pevans/grantfeed/classify"
	"github.com/pevans/grantfeed/render"
	"github.com/pevans/grantfeed/store"
	"github.com/spf13/cobra"
)

type listOptions struct {
	Format   string
	Limit    int
	Offset   int
	Category string
	Since    string
}

func newListCmd(opts *globalOptions) *cobra.Command {
	listOpts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the stored listings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := newLogger(opts)

			st, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			items := st.Load(c.Context())

			items, err = filterItems(items, listOpts, time.Now())
			if err != nil {
				return err
			}

			total := len(items)
			items = paginate(items, listOpts.Offset, listOpts.Limit)

			out := c.OutOrStdout()
			switch listOpts.Format {
			case "table":
				render.PrintTable(out, items, total, listOpts.Offset)
			case "json":
				return render.PrintJSON(out, items, total)
			case "compact":
				render.PrintCompact(out, items)
			default:
				return usageError("invalid format %q: must be table, json or compact", listOpts.Format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&listOpts.Format, "format", "f", "table", "Output format: table, json or compact")
	cmd.Flags().IntVarP(&listOpts.Limit, "limit", "n", 20, "Number of listings to show")
	cmd.Flags().IntVar(&listOpts.Offset, "offset", 0, "Skip this many listings")
	cmd.Flags().StringVar(&listOpts.Category, "category", "", "Only show this category")
	cmd.Flags().StringVar(&listOpts.Since, "since", "", "Only show listings discovered within this window (e.g. 24h, 7d, 2w)")

	return cmd
}

// filterItems applies the category and since filters relative to now.
func filterItems(items []store.Item, opts *listOptions, now time.Time) ([]store.Item, error) {
	if opts.Limit < 1 {
		return nil, usageError("invalid limit %d: must be at least 1", opts.Limit)
	}
	if opts.Offset < 0 {
		return nil, usageError("invalid offset %d: must not be negative", opts.Offset)
	}

	var category string
	if opts.Category != "" {
		c, ok := classify.ParseCategory(opts.Category)
		if !ok {
			return nil, usageError("unknown category %q", opts.Category)
		}
		category = string(c)
	}

	var since string
	if opts.Since != "" {
		window, err := parseDuration(opts.Since)
		if err != nil {
			return nil, usageError("invalid since: %v", err)
		}
		since = now.Add(-window).Format(store.DateLayout)
	}

	filtered := []store.Item{}
	for _, item := range items {
		if category != "" && item.Category != category {
			continue
		}
		if since != "" && item.DiscoveredDate < since {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

func paginate(items []store.Item, offset, limit int) []store.Item {
	if offset >= len(items) {
		return []store.Item{}
	}
	return items[offset:min(offset+limit, len(items))]
}
