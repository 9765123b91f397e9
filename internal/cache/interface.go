package cache

import (
	"context"
	"iter"
	"time"
)

// Store is the match-history cache shared by ingestion and analytics.
type Store interface {
	UpsertPlayer(riotID, puuid string) (PlayerRecord, error)
	Player(riotID string) (PlayerRecord, bool)
	PlayerByPUUID(puuid string) (PlayerRecord, bool)
	Players() []PlayerRecord
	HasMatch(matchID string) bool
	GetMatch(matchID string) (MatchRecord, bool)
	StoreMatch(match MatchRecord) (bool, error)
	MatchesForPlayer(puuid string, order Order) iter.Seq[MatchRecord]
	Matches() iter.Seq[MatchRecord]
	MatchCount() int
	UpdateCursor(puuid string, update CursorUpdate) error
	Load(ctx context.Context) error
	Persist(ctx context.Context) error
	Metadata() Metadata
	MarkUpdated(at time.Time)
	Healthy() error
}

// Backend durably stores snapshots. Load returns a nil snapshot when nothing was saved yet.
type Backend interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}
