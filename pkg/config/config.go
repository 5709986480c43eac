// Package config loads questlog settings from defaults, dotenv files, a
// .questlog config file and QUESTLOG_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"

	envPrefix = "QUESTLOG"

	// PathEnv names an extra directory searched for the config file.
	PathEnv = envPrefix + "_CONFIG_PATH"
)

// Config is the resolved configuration.
type Config struct {
	StoreDriver string `json:"storeDriver" yaml:"storeDriver"`
	StorePath   string `json:"storePath" yaml:"storePath"`
	SessionPath string `json:"sessionPath" yaml:"sessionPath"`

	IconsListingURL string `json:"iconsListingURL" yaml:"iconsListingURL"`
	IconsAssetsURL  string `json:"iconsAssetsURL" yaml:"iconsAssetsURL"`

	LogLevel string `json:"logLevel" yaml:"logLevel"`

	OnlineCheckInterval time.Duration `json:"onlineCheckInterval" yaml:"onlineCheckInterval"`
	Throttle            time.Duration `json:"throttle" yaml:"throttle"`
	PreviewDebounce     time.Duration `json:"previewDebounce" yaml:"previewDebounce"`

	// File is the config file that was read, if any.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Load resolves the configuration. A missing config file is fine; a broken
// one is an error.
func Load() (*Config, error) {
	// Store settings may also come from dotenv files.
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", f, err)
			}
		}
	}

	v := viper.New()
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.path", "~/.questlog/questlog.db")
	v.SetDefault("session.path", "~/.questlog/session")
	v.SetDefault("icons.listing_url", "")
	v.SetDefault("icons.assets_url", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("sync.online_check_interval", 5*time.Second)
	v.SetDefault("sync.throttle", 100*time.Millisecond)
	v.SetDefault("preview.debounce", 500*time.Millisecond)

	v.SetConfigName(".questlog") // .yaml is implicit
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv(PathEnv); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	cfg := &Config{
		StoreDriver:         strings.ToLower(v.GetString("store.driver")),
		IconsListingURL:     v.GetString("icons.listing_url"),
		IconsAssetsURL:      v.GetString("icons.assets_url"),
		LogLevel:            v.GetString("log.level"),
		OnlineCheckInterval: v.GetDuration("sync.online_check_interval"),
		Throttle:            v.GetDuration("sync.throttle"),
		PreviewDebounce:     v.GetDuration("preview.debounce"),
		File:                v.ConfigFileUsed(),
	}

	var err error
	if cfg.StorePath, err = expand(v.GetString("store.path")); err != nil {
		return nil, err
	}
	if cfg.SessionPath, err = expand(v.GetString("session.path")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values viper cannot.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.StorePath == "" {
			return errors.New("config: store.path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown store.driver %q (want %s or %s)", c.StoreDriver, DriverSQLite, DriverMemory)
	}
	if c.SessionPath == "" && c.StoreDriver != DriverMemory {
		return errors.New("config: session.path is required")
	}
	return nil
}

// EnsureDirs creates the directories the configured paths live in.
func (c *Config) EnsureDirs() error {
	if c.StoreDriver == DriverSQLite && c.StorePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(c.StorePath), 0o755); err != nil {
			return fmt.Errorf("config: ensure store directory: %w", err)
		}
	}
	return nil
}

func expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("config: expand %s: %w", path, err)
	}
	return p, nil
}
