package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/log/v2"
	"github.com/pevans/grantfeed/config"
	"github.com/pevans/grantfeed/store"
)

// openStore opens the configured backend and wraps it in a Store. The
// returned func closes the backend.
func openStore(cfg *config.Config, logger *log.Logger) (*store.Store, func(), error) {
	backend, err := store.OpenBackend(cfg.Store.Type, cfg.Store.DSN)
	if err != nil {
		return nil, nil, &exitError{code: 1, err: fmt.Errorf("failed to open store: %w", err)}
	}
	logger.Debug("Opened store", "type", cfg.Store.Type, "dsn", cfg.Store.DSN, "cap", cfg.Store.Cap)

	closeStore := func() {
		if err := store.Close(backend); err != nil {
			logger.Warn("Failed to close store", "err", err)
		}
	}

	st := store.New(backend, &store.Config{
		Cap:    cfg.Store.Cap,
		Logger: logger,
	})
	return st, closeStore, nil
}

// parseDuration extends time.ParseDuration to support 'd' (days) and 'w'
// (weeks)
func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	units := map[string]time.Duration{
		"d": 24 * time.Hour,
		"w": 7 * 24 * time.Hour,
	}
	for suffix, unit := range units {
		if n, ok := strings.CutSuffix(s, suffix); ok {
			count, err := strconv.Atoi(n)
			if err != nil || count < 0 {
				return 0, fmt.Errorf("invalid duration: %s", s)
			}
			return time.Duration(count) * unit, nil
		}
	}

	return 0, fmt.Errorf("invalid duration: %s", s)
}
