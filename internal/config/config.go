package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend kinds.
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

// Config defines application configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
	Session SessionConfig `yaml:"session"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`
}

type BackendConfig struct {
	Kind    string        `yaml:"kind"`
	URL     string        `yaml:"url"`
	AnonKey string        `yaml:"anon_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type SessionConfig struct {
	Path string `yaml:"path"`
}

type UIConfig struct {
	Locale   string `yaml:"locale"`
	PageSize int    `yaml:"page_size"`
	ViewMode string `yaml:"view_mode"`
	SiteURL  string `yaml:"site_url"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Default returns the configuration used before any file or environment override.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Kind:    BackendSupabase,
			Timeout: 15 * time.Second,
		},
		SQLite: SQLiteConfig{
			Path: "pmdash.db",
		},
		Session: SessionConfig{
			Path: defaultSessionPath(),
		},
		UI: UIConfig{
			Locale:   "en",
			PageSize: 5,
			ViewMode: "table",
			SiteURL:  "http://localhost:3000",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and environment
// variables, in that order. path overrides PMDASH_CONFIG when non-empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PMDASH_CONFIG")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if kind := os.Getenv("PMDASH_BACKEND"); kind != "" {
		cfg.Backend.Kind = kind
	}
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		cfg.Backend.URL = url
	}
	if key := os.Getenv("SUPABASE_ANON_KEY"); key != "" {
		cfg.Backend.AnonKey = key
	}
	if dbPath := os.Getenv("PMDASH_DB_PATH"); dbPath != "" {
		cfg.SQLite.Path = dbPath
	}
	if locale := os.Getenv("PMDASH_LOCALE"); locale != "" {
		cfg.UI.Locale = locale
	}
	if level := os.Getenv("PMDASH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("PMDASH_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if sizeStr := os.Getenv("PMDASH_PAGE_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return fmt.Errorf("invalid PMDASH_PAGE_SIZE: %w", err)
		}
		cfg.UI.PageSize = size
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error

	switch c.Backend.Kind {
	case BackendSupabase:
		if c.Backend.URL == "" {
			errs = append(errs, errors.New("supabase backend requires SUPABASE_URL"))
		}
		if c.Backend.AnonKey == "" {
			errs = append(errs, errors.New("supabase backend requires SUPABASE_ANON_KEY"))
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite backend requires a database path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend.Kind))
	}

	if c.UI.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", c.UI.PageSize))
	}
	switch c.UI.ViewMode {
	case "table", "grid":
	default:
		errs = append(errs, fmt.Errorf("unknown view mode %q", c.UI.ViewMode))
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, errors.New("backend timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// SupabaseURL returns the backend URL without a trailing slash.
func (c Config) SupabaseURL() string {
	return strings.TrimRight(c.Backend.URL, "/")
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pmdash-session.yaml"
	}
	return filepath.Join(dir, "pmdash", "session.yaml")
}
