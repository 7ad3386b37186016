package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "GAME_HARVESTER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	redisURLEnv       = "REDIS_URL"
	upstreamURLEnv    = "LICHESS_BASE_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "HARVESTER_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	Upstream      UpstreamConfig     `yaml:"upstream"`
	Pool          PoolConfig         `yaml:"pool"`
	Planner       PlannerConfig      `yaml:"planner"`
	Rate          RateConfig         `yaml:"rate"`
	Harvest       HarvestConfig      `yaml:"harvest"`
	Storage       StorageConfig      `yaml:"storage"`
	Sink          SinkConfig         `yaml:"sink"`
	Ops           OpsConfig          `yaml:"ops"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects handler level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig describes the stream the sink publishes to.
type RedisConfig struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// UpstreamConfig points at the game-export API.
type UpstreamConfig struct {
	BaseURL string `yaml:"baseUrl"`
	// UserAgent identifies the harvester to the upstream operator.
	UserAgent      string `yaml:"userAgent"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	// DefaultRetryAfterSeconds is used when a rate-limit response carries no
	// Retry-After hint.
	DefaultRetryAfterSeconds int `yaml:"defaultRetryAfterSeconds"`
}

// Timeout resolves the upstream HTTP timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// DefaultRetryAfter resolves the fallback reset hint.
func (u UpstreamConfig) DefaultRetryAfter() time.Duration {
	return time.Duration(u.DefaultRetryAfterSeconds) * time.Second
}

// PoolConfig describes how the player pool is assembled.
type PoolConfig struct {
	// Strategy names the registered leaderboard scanner ("lichess" or "html").
	Strategy string `yaml:"strategy"`
	// Categories are the speed classes to merge. The html strategy needs a
	// page URL per category; the API strategy ignores it.
	Categories []CategoryConfig `yaml:"categories"`
	// PerCategory is how many top entries to take from each category.
	PerCategory     int  `yaml:"perCategory"`
	CacheTTLMinutes int  `yaml:"cacheTtlMinutes"`
	Sorted          bool `yaml:"sorted"`
	// Fallback replaces the bundled static list when non-empty.
	Fallback []FallbackPlayer `yaml:"fallback"`
}

// CacheTTL resolves the live-list cache lifetime.
func (p PoolConfig) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLMinutes) * time.Minute
}

// CategoryConfig holds one leaderboard category to merge into the pool.
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FallbackPlayer is one static pool entry from config.
type FallbackPlayer struct {
	Handle   string `yaml:"handle"`
	Title    string `yaml:"title"`
	Rating   int    `yaml:"rating"`
	Category string `yaml:"category"`
}

// PlannerConfig fixes the window walk and player rotation.
type PlannerConfig struct {
	WindowBaseDays  int    `yaml:"windowBaseDays"`
	WindowStepDays  int    `yaml:"windowStepDays"`
	WindowSpanDays  int    `yaml:"windowSpanDays"`
	RotationPrime   int    `yaml:"rotationPrime"`
	PlayersPerBatch int    `yaml:"playersPerBatch"`
	PerPlayerCap    int    `yaml:"perPlayerCap"`
	HistoryFloor    string `yaml:"historyFloor"`
}

// Floor parses the oldest date windows may reach.
func (p PlannerConfig) Floor() (time.Time, error) {
	if p.HistoryFloor == "" {
		return time.Time{}, nil
	}
	floor, err := time.Parse("2006-01-02", p.HistoryFloor)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse history floor %q: %w", p.HistoryFloor, err)
	}
	return floor.UTC(), nil
}

// RateConfig tunes the rate-limit coordinator and retry budget.
type RateConfig struct {
	PaceInitialMs  int     `yaml:"paceInitialMs"`
	PaceFloorMs    int     `yaml:"paceFloorMs"`
	PaceCeilingMs  int     `yaml:"paceCeilingMs"`
	RecoveryPaceMs int     `yaml:"recoveryPaceMs"`
	DecayFactor    float64 `yaml:"decayFactor"`
	SafetyMarginMs int     `yaml:"safetyMarginMs"`
	// MaxLimitRetries bounds consecutive rate-limited attempts on one call
	// before the player is given up for the batch.
	MaxLimitRetries int `yaml:"maxLimitRetries"`
}

// HarvestConfig tunes the orchestrator loop.
type HarvestConfig struct {
	EmptyBatchCeiling int `yaml:"emptyBatchCeiling"`
	MinPlies          int `yaml:"minPlies"`
}

// StorageConfig selects the durable ledger backend.
type StorageConfig struct {
	// Backend is "postgres" or "file".
	Backend string `yaml:"backend"`
	// FilePath is the IDs sidecar location for the file backend.
	FilePath string `yaml:"filePath"`
}

// SinkConfig selects where accepted games go.
type SinkConfig struct {
	// Backend is "redis", "jsonl" or "none".
	Backend   string `yaml:"backend"`
	JSONLPath string `yaml:"jsonlPath"`
}

// OpsConfig controls the status/metrics HTTP surface.
type OpsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SchedulerConfig controls daemon-mode re-runs.
type SchedulerConfig struct {
	IntervalMinutes int `yaml:"intervalMinutes"`
}

// Interval resolves the daemon re-run period.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
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

	return cfg
}

// Validate enforces the fail-fast startup checks. Every error here would
// otherwise only surface mid-run, after network calls already went out.
func (c Config) Validate() error {
	var errs []error

	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream base URL is required"))
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("upstream timeout must be positive"))
	}
	if c.Upstream.DefaultRetryAfterSeconds <= 0 {
		errs = append(errs, errors.New("default retry-after must be positive"))
	}

	if c.Planner.WindowSpanDays <= 0 {
		errs = append(errs, errors.New("window span must be positive"))
	}
	if c.Planner.WindowStepDays <= c.Planner.WindowSpanDays {
		errs = append(errs, fmt.Errorf("window step (%d) must exceed window span (%d) to keep batches disjoint",
			c.Planner.WindowStepDays, c.Planner.WindowSpanDays))
	}
	if c.Planner.WindowBaseDays < 0 {
		errs = append(errs, errors.New("window base cannot be negative"))
	}
	if c.Planner.RotationPrime <= 0 {
		errs = append(errs, errors.New("rotation prime must be positive"))
	}
	if c.Planner.PlayersPerBatch <= 0 {
		errs = append(errs, errors.New("players per batch must be positive"))
	}
	if c.Planner.PerPlayerCap <= 0 {
		errs = append(errs, errors.New("per-player cap must be positive"))
	}
	if _, err := c.Planner.Floor(); err != nil {
		errs = append(errs, err)
	}

	if c.Rate.DecayFactor <= 0 || c.Rate.DecayFactor >= 1 {
		errs = append(errs, errors.New("decay factor must sit strictly between 0 and 1"))
	}
	if c.Rate.MaxLimitRetries <= 0 {
		errs = append(errs, errors.New("max limit retries must be positive"))
	}

	if c.Harvest.EmptyBatchCeiling <= 0 {
		errs = append(errs, errors.New("empty batch ceiling must be positive"))
	}
	if c.Harvest.MinPlies <= 0 {
		errs = append(errs, errors.New("minimum plies must be positive"))
	}

	if c.Pool.Strategy == "" {
		errs = append(errs, errors.New("pool strategy is required"))
	}
	if c.Pool.PerCategory <= 0 {
		errs = append(errs, errors.New("pool per-category size must be positive"))
	}

	switch c.Storage.Backend {
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("postgres ledger needs a database DSN"))
		}
	case "file":
		if c.Storage.FilePath == "" {
			errs = append(errs, errors.New("file ledger needs a path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	switch c.Sink.Backend {
	case "redis":
		if c.Redis.URL == "" || c.Redis.Stream == "" {
			errs = append(errs, errors.New("redis sink needs a URL and a stream name"))
		}
	case "jsonl":
		if c.Sink.JSONLPath == "" {
			errs = append(errs, errors.New("jsonl sink needs a path"))
		}
	case "none":
	default:
		errs = append(errs, fmt.Errorf("unknown sink backend %q", c.Sink.Backend))
	}

	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Redis.URL = v
	}

	if v := os.Getenv(upstreamURLEnv); v != "" {
		c.Upstream.BaseURL = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Redis.URL != "" {
		base.Redis.URL = override.Redis.URL
	}
	if override.Redis.Stream != "" {
		base.Redis.Stream = override.Redis.Stream
	}

	if override.Upstream.BaseURL != "" {
		base.Upstream.BaseURL = override.Upstream.BaseURL
	}
	if override.Upstream.UserAgent != "" {
		base.Upstream.UserAgent = override.Upstream.UserAgent
	}
	if override.Upstream.TimeoutSeconds > 0 {
		base.Upstream.TimeoutSeconds = override.Upstream.TimeoutSeconds
	}
	if override.Upstream.DefaultRetryAfterSeconds > 0 {
		base.Upstream.DefaultRetryAfterSeconds = override.Upstream.DefaultRetryAfterSeconds
	}

	if override.Pool.Strategy != "" {
		base.Pool.Strategy = override.Pool.Strategy
	}
	if len(override.Pool.Categories) > 0 {
		base.Pool.Categories = override.Pool.Categories
	}
	if override.Pool.PerCategory > 0 {
		base.Pool.PerCategory = override.Pool.PerCategory
	}
	if override.Pool.CacheTTLMinutes > 0 {
		base.Pool.CacheTTLMinutes = override.Pool.CacheTTLMinutes
	}
	if override.Pool.Sorted {
		base.Pool.Sorted = true
	}
	if len(override.Pool.Fallback) > 0 {
		base.Pool.Fallback = override.Pool.Fallback
	}

	if override.Planner.WindowBaseDays > 0 {
		base.Planner.WindowBaseDays = override.Planner.WindowBaseDays
	}
	if override.Planner.WindowStepDays > 0 {
		base.Planner.WindowStepDays = override.Planner.WindowStepDays
	}
	if override.Planner.WindowSpanDays > 0 {
		base.Planner.WindowSpanDays = override.Planner.WindowSpanDays
	}
	if override.Planner.RotationPrime > 0 {
		base.Planner.RotationPrime = override.Planner.RotationPrime
	}
	if override.Planner.PlayersPerBatch > 0 {
		base.Planner.PlayersPerBatch = override.Planner.PlayersPerBatch
	}
	if override.Planner.PerPlayerCap > 0 {
		base.Planner.PerPlayerCap = override.Planner.PerPlayerCap
	}
	if override.Planner.HistoryFloor != "" {
		base.Planner.HistoryFloor = override.Planner.HistoryFloor
	}

	if override.Rate.PaceInitialMs > 0 {
		base.Rate.PaceInitialMs = override.Rate.PaceInitialMs
	}
	if override.Rate.PaceFloorMs > 0 {
		base.Rate.PaceFloorMs = override.Rate.PaceFloorMs
	}
	if override.Rate.PaceCeilingMs > 0 {
		base.Rate.PaceCeilingMs = override.Rate.PaceCeilingMs
	}
	if override.Rate.RecoveryPaceMs > 0 {
		base.Rate.RecoveryPaceMs = override.Rate.RecoveryPaceMs
	}
	if override.Rate.DecayFactor > 0 {
		base.Rate.DecayFactor = override.Rate.DecayFactor
	}
	if override.Rate.SafetyMarginMs > 0 {
		base.Rate.SafetyMarginMs = override.Rate.SafetyMarginMs
	}
	if override.Rate.MaxLimitRetries > 0 {
		base.Rate.MaxLimitRetries = override.Rate.MaxLimitRetries
	}

	if override.Harvest.EmptyBatchCeiling > 0 {
		base.Harvest.EmptyBatchCeiling = override.Harvest.EmptyBatchCeiling
	}
	if override.Harvest.MinPlies > 0 {
		base.Harvest.MinPlies = override.Harvest.MinPlies
	}

	if override.Storage.Backend != "" {
		base.Storage.Backend = override.Storage.Backend
	}
	if override.Storage.FilePath != "" {
		base.Storage.FilePath = override.Storage.FilePath
	}

	if override.Sink.Backend != "" {
		base.Sink.Backend = override.Sink.Backend
	}
	if override.Sink.JSONLPath != "" {
		base.Sink.JSONLPath = override.Sink.JSONLPath
	}

	if override.Ops.Enabled {
		base.Ops.Enabled = true
	}
	if override.Ops.Addr != "" {
		base.Ops.Addr = override.Ops.Addr
	}

	if override.Scheduler.IntervalMinutes > 0 {
		base.Scheduler.IntervalMinutes = override.Scheduler.IntervalMinutes
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{DSN: ""},
		Redis:    RedisConfig{URL: "redis://localhost:6379/0", Stream: "harvested-games"},
		Upstream: UpstreamConfig{
			BaseURL:                  "https://lichess.org",
			UserAgent:                "GameHarvester/1.0",
			TimeoutSeconds:           30,
			DefaultRetryAfterSeconds: 60,
		},
		Pool: PoolConfig{
			Strategy: "lichess",
			Categories: []CategoryConfig{
				{Name: "blitz"},
				{Name: "rapid"},
				{Name: "classical"},
			},
			PerCategory:     50,
			CacheTTLMinutes: 30,
		},
		Planner: PlannerConfig{
			WindowBaseDays:  0,
			WindowStepDays:  21,
			WindowSpanDays:  14,
			RotationPrime:   13,
			PlayersPerBatch: 8,
			PerPlayerCap:    25,
			HistoryFloor:    "2015-01-01",
		},
		Rate: RateConfig{
			PaceInitialMs:   4000,
			PaceFloorMs:     2000,
			PaceCeilingMs:   60000,
			RecoveryPaceMs:  10000,
			DecayFactor:     0.9,
			SafetyMarginMs:  2000,
			MaxLimitRetries: 3,
		},
		Harvest: HarvestConfig{
			EmptyBatchCeiling: 6,
			MinPlies:          10,
		},
		Storage:   StorageConfig{Backend: "file", FilePath: "harvested.ids"},
		Sink:      SinkConfig{Backend: "jsonl", JSONLPath: "harvested.jsonl"},
		Ops:       OpsConfig{Enabled: false, Addr: ":9090"},
		Scheduler: SchedulerConfig{IntervalMinutes: 0},
	}
}
