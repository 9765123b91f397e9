package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	Port      string
	LogLevel  string
	ProjectID string
	Riot      RiotConfig
	Cache     CacheConfig
	Tracking  TrackingConfig
	Analytics AnalyticsConfig
	Slack     SlackConfig
	// UpdateSchedule is a cron spec for the periodic incremental update. Empty disables it.
	UpdateSchedule string
}

type RiotConfig struct {
	APIKey  string
	Routing string
}

type CacheConfig struct {
	Backend string // "file" or "sqlite"
	Path    string
	Format  string // "json" or "msgpack", file backend only
}

type TrackingConfig struct {
	Timezone        string
	SeasonStartDate time.Time
}

type AnalyticsConfig struct {
	DuoMinGames      int
	DuoFallbackFloor int
	FlexMinGames     int
	FlexTopN         int
}

type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)
