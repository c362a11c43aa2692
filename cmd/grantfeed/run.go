package main

import (
	"github.com/pevans/grantfeed/pipeline"
	"github.com/pevans/grantfeed/scraper"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var output string
	var classify bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch every source, merge new listings and write the page",
		Long: "Fetch every configured source, merge new listings into the store, save it\n" +
			"and render the page.\n\n" +
			"Exit status: 0 success, 1 usage or config error, 2 every source failed,\n" +
			"3 the store could not be saved, 4 the page could not be written.",
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if c.Flags().Changed("output") {
				cfg.Output.HTML = output
			}
			if c.Flags().Changed("classify") {
				cfg.Classify = classify
			}

			logger := newLogger(opts)

			st, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			fetcher := scraper.New(&scraper.Config{
				Timeout:         cfg.HTTP.Timeout,
				UserAgent:       cfg.HTTP.UserAgent,
				RequestInterval: cfg.HTTP.RequestInterval,
			})

			runner := pipeline.NewRunner(st, fetcher, &pipeline.Config{
				Sources:    cfg.Sources,
				Classify:   cfg.Classify,
				OutputHTML: cfg.Output.HTML,
				Title:      cfg.Output.Title,
				Logger:     logger,
			})

			result, err := runner.Run(c.Context())
			logger.Info("Run finished",
				"sources", result.SourcesFetched,
				"failed", result.SourcesFailed,
				"new", result.NewItems,
				"total", len(result.Items),
			)
			if err != nil {
				return &exitError{code: pipeline.ExitCode(err), err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the HTML page here (overrides config)")
	cmd.Flags().BoolVar(&classify, "classify", false, "Tag listings with a category and amount tier")

	return cmd
}
