package cache

import (
	"errors"
	"sync"
	"time"
)

// SchemaVersion is the version of the persisted document written by this build.
const SchemaVersion = 1

var (
	// ErrCorruptStore is returned when a persisted document fails structural validation.
	ErrCorruptStore = errors.New("cache store is corrupt")
	// ErrInvalidCursorTransition is returned when a cursor update would break monotonicity.
	ErrInvalidCursorTransition = errors.New("invalid cursor transition")
	// ErrDuplicatePUUID is returned when a puuid is already bound to a different riot id.
	ErrDuplicatePUUID = errors.New("puuid already tracked under another riot id")
	// ErrPlayerNotFound is returned for operations on an untracked puuid or riot id.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInvalidRecord is returned when a player or match record is missing its key.
	ErrInvalidRecord = errors.New("invalid record")
)

// QueueType is the normalized queue category of a match.
type QueueType string

const (
	QueueSoloDuo QueueType = "SOLO_DUO"
	QueueFlex    QueueType = "FLEX"
	QueueARAM    QueueType = "ARAM"
	QueueOther   QueueType = "OTHER"
)

// Upstream queue ids.
const (
	QueueIDSoloDuo    = 420
	QueueIDFlex       = 440
	QueueIDARAM       = 450
	QueueIDARAMMayhem = 2400
)

// Participant is one human player in a match.
type Participant struct {
	PUUID      string `json:"puuid"`
	TeamID     int    `json:"team_id"`
	Win        bool   `json:"win"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
	Assists    int    `json:"assists"`
	ChampionID int    `json:"champion_id"`

	// ChampionName is empty for matches cached before names were recorded.
	ChampionName string `json:"champion_name,omitempty"`
}

// MatchRecord is an immutable, normalized match.
type MatchRecord struct {
	MatchID      string        `json:"match_id"`
	QueueType    QueueType     `json:"queue_type"`
	QueueID      int           `json:"queue_id"`
	Timestamp    time.Time     `json:"timestamp"`
	Participants []Participant `json:"participants"`
}

// BackfillCursor tracks how far season backfill has walked back in time.
// A zero Oldest means backfill has not started.
type BackfillCursor struct {
	Oldest   time.Time `json:"oldest"`
	Complete bool      `json:"complete"`
}

// PlayerRecord is a tracked player and its ingestion progress.
type PlayerRecord struct {
	RiotID                string         `json:"riot_id"`
	GameName              string         `json:"game_name,omitempty"`
	TagLine               string         `json:"tag_line,omitempty"`
	PUUID                 string         `json:"puuid"`
	LastIncrementalCursor time.Time      `json:"last_incremental_cursor"`
	SeasonBackfillCursor  BackfillCursor `json:"season_backfill_cursor"`
	AddedAt               time.Time      `json:"added_at"`
}

// CursorUpdate carries the cursors to change. Nil fields are left untouched.
type CursorUpdate struct {
	Incremental *time.Time
	Backfill    *BackfillCursor
}

// Metadata is the process-wide store metadata.
type Metadata struct {
	SchemaVersion  int       `json:"schema_version"`
	LastGlobalSave time.Time `json:"last_global_save"`
	LastUpdate     time.Time `json:"last_update"`
}

// Snapshot is the logical content of the persisted document.
type Snapshot struct {
	Players  map[string]PlayerRecord `json:"players"`
	Matches  map[string]MatchRecord  `json:"matches"`
	Index    map[string][]string     `json:"index"`
	Metadata Metadata                `json:"metadata"`
}

// Order selects the direction of a per-player match sequence.
type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// store is the in-memory Store backed by a durable Backend.
type store struct {
	mu        sync.RWMutex
	persistMu sync.Mutex

	backend Backend
	now     func() time.Time

	players map[string]*PlayerRecord // by riot id
	byPUUID map[string]string        // puuid -> riot id
	matches map[string]MatchRecord
	index   map[string][]string // puuid -> match ids, oldest first
	meta    Metadata

	loadErr error
}
