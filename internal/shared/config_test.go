package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.Recommender.Model != "gemini-2.0-flash" {
			t.Errorf("expected model gemini-2.0-flash, got %s", config.Credentials.Recommender.Model)
		}

		if config.Sync.RecommenderPerMinute != 14 {
			t.Errorf("expected 14 recommender calls per minute, got %d", config.Sync.RecommenderPerMinute)
		}

		if config.Sync.TrackerPageSize != 100 {
			t.Errorf("expected tracker page size 100, got %d", config.Sync.TrackerPageSize)
		}
	})

	t.Run("Derived intervals", func(t *testing.T) {
		config := DefaultConfig()

		if got, want := config.RecommenderInterval(), time.Minute/14; got != want {
			t.Errorf("RecommenderInterval() = %v, want %v", got, want)
		}
		if got, want := config.CatalogInterval(), time.Second/40; got != want {
			t.Errorf("CatalogInterval() = %v, want %v", got, want)
		}
		if got := config.TrackerBackoff(); got != 5*time.Minute {
			t.Errorf("TrackerBackoff() = %v, want 5m", got)
		}

		config.Sync.TrackerBackoff = "not-a-duration"
		if got := config.TrackerBackoff(); got != 5*time.Minute {
			t.Errorf("invalid backoff should fall back to 5m, got %v", got)
		}

		config.Sync.RecommenderPerMinute = 0
		if got := config.RecommenderInterval(); got != 0 {
			t.Errorf("zero rate should disable pacing, got %v", got)
		}
	})

	t.Run("Paths derive from data dir", func(t *testing.T) {
		config := DefaultConfig()
		config.Paths.DataDir = "/tmp/curator-test"

		if got := config.DatabasePath(); got != "/tmp/curator-test/curator.db" {
			t.Errorf("DatabasePath() = %s", got)
		}
		if got := config.LockPath(); got != "/tmp/curator-test/update.lock" {
			t.Errorf("LockPath() = %s", got)
		}
		if got := config.ListsPath(); got != "/tmp/curator-test/lists.json" {
			t.Errorf("ListsPath() = %s", got)
		}

		config.Database.Path = "/elsewhere/db.sqlite"
		if got := config.DatabasePath(); got != "/elsewhere/db.sqlite" {
			t.Errorf("explicit database path should win, got %s", got)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Paths.DataDir != DefaultConfig().Paths.DataDir {
			t.Errorf("created config data dir doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig keeps defaults for missing keys", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[paths]
data_dir = "/custom/dir"

[credentials.tracker]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.DataDir() != "/custom/dir" {
			t.Errorf("expected data dir /custom/dir, got %s", config.DataDir())
		}
		if config.Credentials.Tracker.ClientID != "test_client_id" {
			t.Errorf("expected tracker client_id test_client_id, got %s", config.Credentials.Tracker.ClientID)
		}
		if config.Credentials.Tracker.BaseURL != "https://api.trakt.tv" {
			t.Errorf("expected default tracker base URL, got %s", config.Credentials.Tracker.BaseURL)
		}
	})

	t.Run("LoadConfig rejects invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[paths\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Notifications.Disabled = true

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		data, _ := os.ReadFile(configPath)
		if !strings.Contains(string(data), "disabled = true") {
			t.Errorf("saved config missing notifications flag:\n%s", data)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if !loaded.Notifications.Disabled {
			t.Error("expected notifications to stay disabled")
		}
	})
}
