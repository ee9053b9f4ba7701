package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Paths         PathsConfig         `toml:"paths"`
	Credentials   CredentialsConfig   `toml:"credentials"`
	Database      DatabaseConfig      `toml:"database"`
	Server        ServerConfig        `toml:"server"`
	Log           LogConfig           `toml:"log"`
	Notifications NotificationsConfig `toml:"notifications"`
	Sync          SyncConfig          `toml:"sync"`
	Shortener     ShortenerConfig     `toml:"shortener"`
}

// PathsConfig locates the profile directory that holds all local state.
type PathsConfig struct {
	DataDir string `toml:"data_dir"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Recommender RecommenderConfig `toml:"recommender"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Tracker     TrackerConfig     `toml:"tracker"`
}

// RecommenderConfig configures the generative model endpoint.
//
// APIKey is a fallback; a key stored with "auth recommender" takes precedence.
type RecommenderConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// CatalogConfig holds the catalog's application read token and endpoints.
type CatalogConfig struct {
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	ApproveURL string `toml:"approve_url"`
}

// TrackerConfig holds the tracker application's client credentials.
type TrackerConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type NotificationsConfig struct {
	Disabled bool `toml:"disabled"`
}

// SyncConfig carries the pacing constants for each remote service and the timer settings.
type SyncConfig struct {
	RecommenderPerMinute int    `toml:"recommender_per_minute"`
	CatalogPerSecond     int    `toml:"catalog_per_second"`
	TrackerPageSize      int    `toml:"tracker_page_size"`
	TrackerBackoff       string `toml:"tracker_backoff"`
	IntervalHours        int    `toml:"interval_hours"`
	PollInterval         string `toml:"poll_interval"`
}

type ShortenerConfig struct {
	BaseURL string `toml:"base_url"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and overwrites path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DataDir returns the expanded profile directory.
func (c *Config) DataDir() string {
	if c.Paths.DataDir == "" {
		return ExpandPath("~/.curator")
	}
	return ExpandPath(c.Paths.DataDir)
}

func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return ExpandPath(c.Database.Path)
	}
	return filepath.Join(c.DataDir(), "curator.db")
}

func (c *Config) ListsPath() string    { return filepath.Join(c.DataDir(), "lists.json") }
func (c *Config) LockPath() string     { return filepath.Join(c.DataDir(), "update.lock") }
func (c *Config) LastRunPath() string  { return filepath.Join(c.DataDir(), "last_run_timestamp.txt") }
func (c *Config) LogPath() string      { return filepath.Join(c.DataDir(), c.Log.File) }
func (c *Config) CallbackAddr() string { return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port) }

// RecommenderInterval is the fixed pause before each list's recommendation call.
func (c *Config) RecommenderInterval() time.Duration {
	if c.Sync.RecommenderPerMinute <= 0 {
		return 0
	}
	return time.Minute / time.Duration(c.Sync.RecommenderPerMinute)
}

// CatalogInterval is the minimum spacing between title resolution calls.
func (c *Config) CatalogInterval() time.Duration {
	if c.Sync.CatalogPerSecond <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Sync.CatalogPerSecond)
}

// TrackerBackoff is the fixed pause after the tracker answers 429.
func (c *Config) TrackerBackoff() time.Duration {
	return parseDuration(c.Sync.TrackerBackoff, 5*time.Minute)
}

func (c *Config) PollInterval() time.Duration {
	return parseDuration(c.Sync.PollInterval, 5*time.Minute)
}

func (c *Config) UpdateInterval() time.Duration {
	if c.Sync.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Sync.IntervalHours) * time.Hour
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
