package tracker

import (
	"time"

	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/pubsub"
)

type service struct {
	store     cache.Store
	ingest    *ingest.Engine
	analytics *analytics.Engine
	pubsub    pubsub.PubSubClient
	now       func() time.Time
}

// AddPlayerResult describes the roster entry after an add.
type AddPlayerResult struct {
	Player  cache.PlayerRecord `json:"player"`
	Created bool               `json:"created"`
}

// PlayerSummary is a roster row.
type PlayerSummary struct {
	RiotID           string    `json:"riot_id"`
	PUUID            string    `json:"puuid"`
	Matches          int       `json:"matches"`
	LastIncremental  time.Time `json:"last_incremental"`
	BackfillOldest   time.Time `json:"backfill_oldest"`
	BackfillComplete bool      `json:"backfill_complete"`
	AddedAt          time.Time `json:"added_at"`
}

// Status summarises the cache for health checks.
type Status struct {
	Healthy        bool      `json:"healthy"`
	Error          string    `json:"error,omitempty"`
	Players        int       `json:"players"`
	Matches        int       `json:"matches"`
	SchemaVersion  int       `json:"schema_version"`
	LastGlobalSave time.Time `json:"last_global_save"`
	LastUpdate     time.Time `json:"last_update"`
}
