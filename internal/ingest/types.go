package ingest

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/metrics"
	"github.com/mauv0809/league-ledger/internal/pubsub"
	"github.com/mauv0809/league-ledger/internal/ratelimit"
	"github.com/mauv0809/league-ledger/internal/riot"
	"github.com/mauv0809/league-ledger/internal/timewindow"
)

// ErrUpdateInProgress is returned when another ingestion run holds the update lock.
var ErrUpdateInProgress = errors.New("an update is already in progress")

// Kind names an ingestion operation.
type Kind string

const (
	KindIncremental Kind = "incremental"
	KindBackfill    Kind = "backfill"
)

const (
	DefaultIncrementalPageSize = 20
	DefaultBackfillPageSize    = 100
	DefaultMaxThrottleRetries  = 6
)

// Options tunes pagination and retry behaviour. Zero values take the defaults.
type Options struct {
	IncrementalPageSize int
	BackfillPageSize    int
	MaxThrottleRetries  int
	Now                 func() time.Time
}

// Engine runs incremental updates and season backfills against the cache.
// At most one run is active at a time.
type Engine struct {
	updateMu sync.Mutex

	store    cache.Store
	client   riot.Client
	limiter  ratelimit.Limiter
	calendar timewindow.Calculator
	metrics  metrics.Metrics
	pubsub   pubsub.PubSubClient
	opts     Options
}

// PlayerResult is the outcome of one player's pagination within a run.
type PlayerResult struct {
	RiotID     string `json:"riot_id"`
	NewMatches int    `json:"new_matches"`
	Pages      int    `json:"pages"`
	Skipped    bool   `json:"skipped,omitempty"`
	Complete   bool   `json:"backfill_complete,omitempty"`
	Error      string `json:"error,omitempty"`
	// Missing lists match ids upstream listed but could no longer serve.
	Missing []string `json:"missing,omitempty"`

	Err error `json:"-"`
}

func (r *PlayerResult) skipMissing(riotID, matchID string) {
	log.Warn("Skipping match missing upstream", "riot_id", riotID, "match_id", matchID)
	r.Missing = append(r.Missing, matchID)
}

// Failed reports whether the player's pagination aborted.
func (r PlayerResult) Failed() bool {
	return r.Err != nil
}

// RunSummary reports what an ingestion run did, per player.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	Kind       Kind           `json:"kind"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Players    []PlayerResult `json:"players"`
	NewMatches int            `json:"new_matches"`
	Failures   int            `json:"failures"`
	Cancelled  bool           `json:"cancelled"`

	newMatchIDs []string
}

// Duration returns the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
