package main

import (
	"fmt"
	"os"
	"time"

	"charm.land/log/v2"
	"github.com/pevans/grantfeed/config"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	ConfigPath string
	Verbose    bool
}

// exitError carries a process exit status up to main.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "grantfeed",
		Short: "Watch grant and funding listings and publish what is new",
		Long: "grantfeed fetches listing pages and feeds, keeps a capped store of every\n" +
			"listing it has seen, and renders the newest ones as a static page.",
		Example: `  # Fetch every configured source and write the page
  grantfeed run

  # Use a specific config file
  grantfeed run --config ./grantfeed.yaml

  # Show the stored listings
  grantfeed list --since 7d --format compact

  # Serve the store over HTTP
  grantfeed serve --addr :9000`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (default: $GRANTFEED_CONFIG or ~/.grantfeed/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log debug output")

	cmd.AddCommand(
		newRunCmd(opts),
		newListCmd(opts),
		newServeCmd(opts),
		newClassifyCmd(),
	)

	return cmd
}

// loadConfig reads the config, wrapping failures as a usage error.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &exitError{code: 1, err: err}
	}
	return cfg, nil
}

func newLogger(opts *globalOptions) *log.Logger {
	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
}

func usageError(format string, args ...any) error {
	return &exitError{code: 1, err: fmt.Errorf(format, args...)}
}
