package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	defaultDataPath   = "/app/data/videos.json"
	configPathEnv     = "YTVEILLE_CONFIG"
	youtubeAPIKeyEnv  = "YOUTUBE_API_KEY"
	dataPathEnv       = "DATA_PATH"
	databaseDSNEnv    = "DATABASE_DSN"
	redisURLEnv       = "REDIS_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	httpAddrEnv       = "HTTP_ADDR"
	corsOriginsEnv    = "CORS_ORIGINS"
)

// Config holds high-level settings required across the application.
type Config struct {
	YouTube       YouTubeConfig      `yaml:"youtube"`
	Storage       StorageConfig      `yaml:"storage"`
	Archive       ArchiveConfig      `yaml:"archive"`
	Cache         CacheConfig        `yaml:"cache"`
	Server        ServerConfig       `yaml:"server"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// YouTubeConfig tunes the platform client and the fetch aggregator.
type YouTubeConfig struct {
	APIKey            string        `yaml:"apiKey"`
	MaxResults        int64         `yaml:"maxResults"`
	RegionCode        string        `yaml:"regionCode"`
	RelevanceLanguage string        `yaml:"relevanceLanguage"`
	RecencyDays       int           `yaml:"recencyDays"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	BatchSize         int           `yaml:"batchSize"`
	SearchConcurrency int           `yaml:"searchConcurrency"`
	DetailConcurrency int           `yaml:"detailConcurrency"`
}

// RecencyWindow converts RecencyDays into a duration.
func (y YouTubeConfig) RecencyWindow() time.Duration {
	return time.Duration(y.RecencyDays) * 24 * time.Hour
}

// StorageConfig locates the JSON snapshot; sibling files live next to it.
type StorageConfig struct {
	DataPath string `yaml:"dataPath"`
}

// ArchiveConfig enables the optional Postgres archive when DSN is set.
type ArchiveConfig struct {
	DSN string `yaml:"dsn"`
}

// CacheConfig enables the optional Redis response cache when URL is set.
type CacheConfig struct {
	RedisURL string        `yaml:"redisUrl"`
	TTL      time.Duration `yaml:"ttl"`
}

// ServerConfig drives the read API listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     string        `yaml:"corsOrigins"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	RunOnStart     bool           `yaml:"runOnStart"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BaseURL    string `yaml:"baseUrl"`
	BotToken   string `yaml:"botToken"`
	ChatID     string `yaml:"chatId"`
	DigestSize int    `yaml:"digestSize"`
}

// LoggingConfig selects level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env string
		dst *string
	}{
		{youtubeAPIKeyEnv, &c.YouTube.APIKey},
		{dataPathEnv, &c.Storage.DataPath},
		{databaseDSNEnv, &c.Archive.DSN},
		{redisURLEnv, &c.Cache.RedisURL},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
		{logLevelEnv, &c.Logging.Level},
		{httpAddrEnv, &c.Server.Addr},
		{corsOriginsEnv, &c.Server.CORSOrigins},
	}

	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	y, oy := &base.YouTube, override.YouTube
	mergeString(&y.APIKey, oy.APIKey)
	mergeString(&y.RegionCode, oy.RegionCode)
	mergeString(&y.RelevanceLanguage, oy.RelevanceLanguage)
	mergePositive(&y.MaxResults, oy.MaxResults)
	mergePositive(&y.RecencyDays, oy.RecencyDays)
	mergePositive(&y.RequestTimeout, oy.RequestTimeout)
	mergePositive(&y.RequestsPerSecond, oy.RequestsPerSecond)
	mergePositive(&y.BatchSize, oy.BatchSize)
	mergePositive(&y.SearchConcurrency, oy.SearchConcurrency)
	mergePositive(&y.DetailConcurrency, oy.DetailConcurrency)

	mergeString(&base.Storage.DataPath, override.Storage.DataPath)
	mergeString(&base.Archive.DSN, override.Archive.DSN)

	mergeString(&base.Cache.RedisURL, override.Cache.RedisURL)
	mergePositive(&base.Cache.TTL, override.Cache.TTL)

	mergeString(&base.Server.Addr, override.Server.Addr)
	mergeString(&base.Server.CORSOrigins, override.Server.CORSOrigins)
	mergePositive(&base.Server.ShutdownTimeout, override.Server.ShutdownTimeout)

	mergeString(&base.Scheduler.CronExpression, override.Scheduler.CronExpression)
	mergeString(&base.Scheduler.Timezone, override.Scheduler.Timezone)
	if override.Scheduler.RunOnStart {
		base.Scheduler.RunOnStart = true
	}

	tg, otg := &base.Notifications.Telegram, override.Notifications.Telegram
	mergeString(&tg.BaseURL, otg.BaseURL)
	mergeString(&tg.BotToken, otg.BotToken)
	mergeString(&tg.ChatID, otg.ChatID)
	mergePositive(&tg.DigestSize, otg.DigestSize)

	mergeString(&base.Logging.Level, override.Logging.Level)
	mergeString(&base.Logging.Format, override.Logging.Format)

	return base
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergePositive[T int | int64 | float64 | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		YouTube: YouTubeConfig{
			MaxResults:        25,
			RegionCode:        "FR",
			RelevanceLanguage: "fr",
			RecencyDays:       30,
			RequestTimeout:    15 * time.Second,
			BatchSize:         50,
			SearchConcurrency: 1,
			DetailConcurrency: 2,
		},
		Storage:   StorageConfig{DataPath: defaultDataPath},
		Cache:     CacheConfig{TTL: 10 * time.Minute},
		Server:    ServerConfig{Addr: ":8000", CORSOrigins: "*", ShutdownTimeout: 30 * time.Second},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{DigestSize: 5},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
