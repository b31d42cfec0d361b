package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"dayplan/internal/scheduler"
)

type Config struct {
	Port          string   `yaml:"port"`
	DBPath        string   `yaml:"db_path"`
	MigrationsDir string   `yaml:"migrations_dir"`
	CORSOrigins   []string `yaml:"cors_origins"`

	LogLevel   string `yaml:"log_level"`
	LogConsole bool   `yaml:"log_console"`

	// Timezone is used to read "now" as a time of day for progress reports.
	Timezone string           `yaml:"timezone"`
	Breaks   scheduler.Policy `yaml:"breaks"`

	// StaleAfter enables the sweeper when positive.
	StaleAfter    time.Duration `yaml:"stale_after"`
	SweepSchedule string        `yaml:"sweep_schedule"`

	TipsRatePerMinute int `yaml:"tips_rate_per_minute"`
}

func Default() Config {
	return Config{
		Port:              "8080",
		DBPath:            "./data/dayplan.db",
		CORSOrigins:       []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		LogLevel:          "info",
		Timezone:          "Local",
		Breaks:            scheduler.DefaultPolicy,
		SweepSchedule:     "@every 5m",
		TipsRatePerMinute: 6,
	}
}

// Load starts from Default, overlays the YAML file named by DAYPLAN_CONFIG
// when set, then applies environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := getEnv("DAYPLAN_CONFIG", ""); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogConsole = getEnvBool("LOG_CONSOLE", cfg.LogConsole)
	cfg.Timezone = getEnv("TZ_NAME", cfg.Timezone)
	cfg.Breaks.WorkThreshold = getEnvInt("BREAK_WORK_THRESHOLD_MINUTES", cfg.Breaks.WorkThreshold)
	cfg.Breaks.ShortBreakMinutes = getEnvInt("BREAK_SHORT_MINUTES", cfg.Breaks.ShortBreakMinutes)
	cfg.Breaks.LongBreakMinutes = getEnvInt("BREAK_LONG_MINUTES", cfg.Breaks.LongBreakMinutes)
	cfg.Breaks.LongBreakEvery = getEnvInt("BREAK_LONG_EVERY", cfg.Breaks.LongBreakEvery)
	cfg.StaleAfter = getEnvDuration("STALE_AFTER", cfg.StaleAfter)
	cfg.SweepSchedule = getEnv("SWEEP_SCHEDULE", cfg.SweepSchedule)
	cfg.TipsRatePerMinute = getEnvInt("TIPS_RATE_PER_MINUTE", cfg.TipsRatePerMinute)

	return cfg, nil
}

// Location resolves Timezone, falling back to the local zone.
func (c Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
