package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/grantfeed/scraper"
	"github.com/pevans/grantfeed/store"
	"gopkg.in/yaml.v3"
)

// StoreConfig selects and sizes the record store.
type StoreConfig struct {
	Type string `yaml:"type"` // "file", "sqlite" or "memory"
	DSN  string `yaml:"dsn"`
	Cap  int    `yaml:"cap"`
}

// OutputConfig controls the rendered page.
type OutputConfig struct {
	HTML  string `yaml:"html"`
	Title string `yaml:"title"`
}

// HTTPConfig holds the fetch settings.
type HTTPConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	UserAgent       string        `yaml:"user_agent"`
	RequestInterval time.Duration `yaml:"request_interval"`
}

// ServerConfig holds the API server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the structure of the config file.
type Config struct {
	Sources  []scraper.SourceConfig `yaml:"sources"`
	Store    StoreConfig            `yaml:"store"`
	Output   OutputConfig           `yaml:"output"`
	Classify bool                   `yaml:"classify"`
	HTTP     HTTPConfig             `yaml:"http"`
	Server   ServerConfig           `yaml:"server"`
}

// Default returns the configuration used when no file exists. Fields left
// out of a config file keep these values.
func Default() *Config {
	httpDefaults := scraper.DefaultConfig()
	return &Config{
		Store: StoreConfig{
			Type: "file",
			DSN:  "items.json",
			Cap:  store.DefaultCap,
		},
		Output: OutputConfig{
			Title: "Latest listings",
		},
		HTTP: HTTPConfig{
			Timeout:         httpDefaults.Timeout,
			UserAgent:       httpDefaults.UserAgent,
			RequestInterval: httpDefaults.RequestInterval,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// DefaultPath returns ~/.grantfeed/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".grantfeed", "config.yaml"), nil
}

// Load reads the config file at path, or at $GRANTFEED_CONFIG, or at
// DefaultPath, in that order, then applies environment overrides. A missing
// file at the default location is not an error and yields Default. A
// missing file that was asked for explicitly is.
func Load(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv("GRANTFEED_CONFIG")
	}
	if path == "" {
		explicit = false
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Nothing to read, defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail later.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid store type %q: %w", c.Store.Type, store.ErrUnknownBackend)
	}
	if c.Store.Cap < 1 {
		return fmt.Errorf("invalid store cap %d: must be at least 1", c.Store.Cap)
	}

	for i, src := range c.Sources {
		if src.URL == "" {
			return fmt.Errorf("source %d (%s): url is required", i, src.Name)
		}
		switch src.Kind {
		case "", scraper.KindHTML, scraper.KindFeed:
		default:
			return fmt.Errorf("source %d (%s): %w", i, src.Name, scraper.ErrUnsupportedKind)
		}
	}

	return nil
}
