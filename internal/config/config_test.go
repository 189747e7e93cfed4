package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(dataPathEnv, "")
	t.Setenv(youtubeAPIKeyEnv, "")

	cfg := Load()

	if cfg.Storage.DataPath != "/app/data/videos.json" {
		t.Fatalf("unexpected data path %s", cfg.Storage.DataPath)
	}
	if cfg.Scheduler.CronExpression != "0 6 * * *" || cfg.Scheduler.Location() != time.UTC {
		t.Fatalf("unexpected scheduler config: %+v", cfg.Scheduler)
	}
	if cfg.YouTube.MaxResults != 25 || cfg.YouTube.RecencyWindow() != 30*24*time.Hour {
		t.Fatalf("unexpected youtube config: %+v", cfg.YouTube)
	}
	if cfg.YouTube.SearchConcurrency != 1 || cfg.YouTube.DetailConcurrency != 2 {
		t.Fatalf("unexpected concurrency defaults: %+v", cfg.YouTube)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
youtube:
  maxResults: 10
  requestTimeout: 5s
  searchConcurrency: 3
scheduler:
  cronExpression: "30 7 * * 1-5"
  timezone: Europe/Paris
  runOnStart: true
cache:
  ttl: 2m
logging:
  format: json
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(youtubeAPIKeyEnv, "key-from-env")
	t.Setenv(dataPathEnv, "/tmp/yt/videos.json")
	t.Setenv(redisURLEnv, "redis://localhost:6379/0")
	t.Setenv(logLevelEnv, "debug")

	cfg := Load()

	if cfg.YouTube.MaxResults != 10 || cfg.YouTube.RequestTimeout != 5*time.Second || cfg.YouTube.SearchConcurrency != 3 {
		t.Fatalf("file values not applied: %+v", cfg.YouTube)
	}
	if cfg.YouTube.RegionCode != "FR" {
		t.Fatalf("defaults must survive a partial file, got %q", cfg.YouTube.RegionCode)
	}
	if cfg.YouTube.APIKey != "key-from-env" || cfg.Storage.DataPath != "/tmp/yt/videos.json" {
		t.Fatalf("env overrides not applied")
	}
	if cfg.Cache.RedisURL == "" || cfg.Cache.TTL != 2*time.Minute {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if !cfg.Scheduler.RunOnStart || cfg.Scheduler.CronExpression != "30 7 * * 1-5" {
		t.Fatalf("unexpected scheduler config: %+v", cfg.Scheduler)
	}
	if _, err := time.LoadLocation("Europe/Paris"); err == nil && cfg.Scheduler.Location().String() != "Europe/Paris" {
		t.Fatalf("expected Europe/Paris location, got %s", cfg.Scheduler.Location())
	}
}

func TestLoadInvalidTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scheduler:\n  timezone: Mars/Olympus\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("expected UTC fallback, got %s", cfg.Scheduler.Location())
	}
}
