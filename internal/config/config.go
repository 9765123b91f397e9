package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	cfg, err := fromEnv(os.LookupEnv)
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	return cfg
}

func fromEnv(lookup func(string) (string, bool)) (Config, error) {
	var missing []string
	// A helper function to get a required env var.
	getEnv := func(key string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		missing = append(missing, key)
		return ""
	}
	getEnvDefault := func(key, fallback string) string {
		if value, ok := lookup(key); ok {
			return value
		}
		return fallback
	}
	var parseErr error
	getInt := func(key string, fallback int) int {
		raw, ok := lookup(key)
		if !ok || raw == "" {
			return fallback
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			parseErr = fmt.Errorf("%s must be a positive integer, got %q", key, raw)
			return fallback
		}
		return n
	}

	cfg := Config{
		Port:      getEnvDefault("PORT", "8080"),
		LogLevel:  getEnvDefault("LOG_LEVEL", "info"),
		ProjectID: getEnvDefault("GCP_PROJECT", ""),
		Riot: RiotConfig{
			APIKey:  getEnv("RIOT_API_KEY"),
			Routing: getEnvDefault("RIOT_ROUTING", "americas"),
		},
		Cache: CacheConfig{
			Backend: getEnvDefault("CACHE_BACKEND", BackendFile),
			Path:    getEnvDefault("CACHE_PATH", "league_cache.json"),
			Format:  getEnvDefault("CACHE_FORMAT", "json"),
		},
		Tracking: TrackingConfig{
			Timezone: getEnvDefault("TRACKING_TIMEZONE", "America/New_York"),
		},
		Analytics: AnalyticsConfig{
			DuoMinGames:      getInt("DUO_MIN_GAMES", 3),
			DuoFallbackFloor: getInt("DUO_FALLBACK_FLOOR", 1),
			FlexMinGames:     getInt("FLEX_MIN_GAMES", 3),
			FlexTopN:         getInt("FLEX_TOP_N", 5),
		},
		Slack: SlackConfig{
			Token:         getEnvDefault("SLACK_BOT_TOKEN", ""),
			ChannelID:     getEnvDefault("SLACK_CHANNEL_ID", ""),
			SigningSecret: getEnvDefault("SLACK_SIGNING_SECRET", ""),
		},
		UpdateSchedule: getEnvDefault("UPDATE_SCHEDULE", "@hourly"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %v", missing)
	}
	if parseErr != nil {
		return Config{}, parseErr
	}

	season, err := time.Parse("2006-01-02", getEnvDefault("SEASON_START_DATE", "2026-01-08"))
	if err != nil {
		return Config{}, fmt.Errorf("SEASON_START_DATE must be YYYY-MM-DD: %w", err)
	}
	cfg.Tracking.SeasonStartDate = season

	switch cfg.Cache.Backend {
	case BackendFile, BackendSQLite:
	default:
		return Config{}, fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", BackendFile, BackendSQLite, cfg.Cache.Backend)
	}
	return cfg, nil
}
