// Package config provides configuration loading and structs for calcombine.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ziltek/calcombine/internal/catalog"
	"github.com/ziltek/calcombine/internal/models"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the storage section.
const (
	EnvDatabaseDSN    = "CALCOMBINE_DATABASE_DSN"
	EnvDatabaseDriver = "CALCOMBINE_DATABASE_DRIVER"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds all configuration for the application.
type Config struct {
	Debug   bool                `yaml:"debug"`
	Server  ServerConfig        `yaml:"server"`
	Storage StorageConfig       `yaml:"storage"`
	Output  OutputConfig        `yaml:"output"`
	Sources []models.SourceFile `yaml:"sources"`
	Watch   WatchConfig         `yaml:"watch"`
	Catalog CatalogConfig       `yaml:"catalog,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects the record database.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// OutputConfig holds the combined CSV artifact location.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig holds source watch settings.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// CatalogConfig overrides the built-in label catalog when Labels is non-empty.
type CatalogConfig struct {
	Labels []catalog.LabelSpec `yaml:"labels,omitempty"`
}

// Load reads and parses the config file at path, applies environment overrides (including
// a .env file next to the config), applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := finish(&cfg, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults returns the default configuration with relative paths resolved against dir.
// It is used when no config file exists; a .env file in dir is still honoured.
func Defaults(dir string) (*Config, error) {
	var cfg Config
	if err := finish(&cfg, dir); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func finish(cfg *Config, configDir string) error {
	if err := loadDotEnv(filepath.Join(configDir, ".env")); err != nil {
		return err
	}
	ApplyEnv(cfg)
	ApplyDefaults(cfg)

	// go-sqlite3 URIs and in-memory databases are passed through untouched.
	if dsn := cfg.Storage.DSN; cfg.Storage.Driver == "sqlite3" && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		cfg.Storage.DSN = expandPath(dsn, configDir)
	}
	cfg.Output.Path = expandPath(cfg.Output.Path, configDir)
	for i := range cfg.Sources {
		cfg.Sources[i].Path = expandPath(cfg.Sources[i].Path, configDir)
	}
	return nil
}

// loadDotEnv loads path into the environment if it exists. Variables already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides storage settings from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvDatabaseDriver); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		cfg.Storage.DSN = v
	}
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("%w: unsupported storage driver %q", ErrInvalid, c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("%w: storage dsn is empty", ErrInvalid)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalid)
	}
	for i, s := range c.Sources {
		if s.Path == "" {
			return fmt.Errorf("%w: source %d has no path", ErrInvalid, i+1)
		}
		if s.Type == "" {
			return fmt.Errorf("%w: source %s has no type", ErrInvalid, s.Path)
		}
	}
	if _, err := c.LabelCatalog(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// LabelCatalog returns the configured catalog, or the built-in one when none is configured.
func (c *Config) LabelCatalog() (*catalog.Catalog, error) {
	if len(c.Catalog.Labels) == 0 {
		return catalog.Default(), nil
	}
	return catalog.New(c.Catalog.Labels)
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
