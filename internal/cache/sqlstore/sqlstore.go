// Package sqlstore persists the cache in an embedded SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/cache"
)

// Store is a cache.Backend over SQLite. Matches are immutable, so only matches
// not yet written are inserted on each save.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	saved map[string]bool
}

var _ cache.Backend = (*Store)(nil)

// New creates a backend over an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, saved: make(map[string]bool)}
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

func corrupt(what string, err error) error {
	return fmt.Errorf("%w: read %s: %s", cache.ErrCorruptStore, what, err)
}

// Load reads the whole cache. An empty database yields a nil snapshot.
func (s *Store) Load(ctx context.Context) (*cache.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &cache.Snapshot{
		Players: make(map[string]cache.PlayerRecord),
		Matches: make(map[string]cache.MatchRecord),
		Index:   make(map[string][]string),
	}

	var saveNs, updateNs int64
	err := s.db.QueryRowContext(ctx,
		"SELECT schema_version, last_global_save_ns, last_update_ns FROM cache_metadata WHERE id = 1",
	).Scan(&snap.Metadata.SchemaVersion, &saveNs, &updateNs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	snap.Metadata.LastGlobalSave = fromNanos(saveNs)
	snap.Metadata.LastUpdate = fromNanos(updateNs)

	if err := s.loadPlayers(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadMatches(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadIndex(ctx, snap); err != nil {
		return nil, err
	}

	s.saved = make(map[string]bool, len(snap.Matches))
	for id := range snap.Matches {
		s.saved[id] = true
	}
	log.Debug("Read cache from database", "players", len(snap.Players), "matches", len(snap.Matches))
	return snap, nil
}

func (s *Store) loadPlayers(ctx context.Context, snap *cache.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT riot_id, game_name, tag_line, puuid, last_incremental_ns, backfill_oldest_ns, backfill_complete, added_at_ns
		FROM players`)
	if err != nil {
		return fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p cache.PlayerRecord
		var incNs, oldestNs, addedNs int64
		if err := rows.Scan(&p.RiotID, &p.GameName, &p.TagLine, &p.PUUID, &incNs, &oldestNs, &p.SeasonBackfillCursor.Complete, &addedNs); err != nil {
			return corrupt("player", err)
		}
		p.LastIncrementalCursor = fromNanos(incNs)
		p.SeasonBackfillCursor.Oldest = fromNanos(oldestNs)
		p.AddedAt = fromNanos(addedNs)
		snap.Players[p.RiotID] = p
	}
	return rows.Err()
}

func (s *Store) loadMatches(ctx context.Context, snap *cache.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, "SELECT match_id, queue_type, queue_id, timestamp_ns FROM matches")
	if err != nil {
		return fmt.Errorf("query matches: %w", err)
	}
	for rows.Next() {
		var m cache.MatchRecord
		var tsNs int64
		if err := rows.Scan(&m.MatchID, &m.QueueType, &m.QueueID, &tsNs); err != nil {
			rows.Close()
			return corrupt("match", err)
		}
		m.Timestamp = fromNanos(tsNs)
		snap.Matches[m.MatchID] = m
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT match_id, puuid, team_id, win, kills, deaths, assists, champion_id, champion_name
		FROM participants ORDER BY match_id, position`)
	if err != nil {
		return fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var matchID string
		var p cache.Participant
		if err := rows.Scan(&matchID, &p.PUUID, &p.TeamID, &p.Win, &p.Kills, &p.Deaths, &p.Assists, &p.ChampionID, &p.ChampionName); err != nil {
			return corrupt("participant", err)
		}
		m, ok := snap.Matches[matchID]
		if !ok {
			return corrupt("participant", fmt.Errorf("orphan participant of %s", matchID))
		}
		m.Participants = append(m.Participants, p)
		snap.Matches[matchID] = m
	}
	return rows.Err()
}

func (s *Store) loadIndex(ctx context.Context, snap *cache.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, "SELECT puuid, match_id FROM player_matches")
	if err != nil {
		return fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var puuid, matchID string
		if err := rows.Scan(&puuid, &matchID); err != nil {
			return corrupt("index", err)
		}
		snap.Index[puuid] = append(snap.Index[puuid], matchID)
	}
	return rows.Err()
}

// Save writes the snapshot in one transaction.
func (s *Store) Save(ctx context.Context, snap *cache.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cache_metadata (id, schema_version, last_global_save_ns, last_update_ns)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			last_global_save_ns = excluded.last_global_save_ns,
			last_update_ns = excluded.last_update_ns`,
		snap.Metadata.SchemaVersion, toNanos(snap.Metadata.LastGlobalSave), toNanos(snap.Metadata.LastUpdate))
	if err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}

	playerStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO players (riot_id, game_name, tag_line, puuid, last_incremental_ns, backfill_oldest_ns, backfill_complete, added_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(riot_id) DO UPDATE SET
			last_incremental_ns = excluded.last_incremental_ns,
			backfill_oldest_ns = excluded.backfill_oldest_ns,
			backfill_complete = excluded.backfill_complete`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()
	for _, p := range snap.Players {
		_, err := playerStmt.ExecContext(ctx, p.RiotID, p.GameName, p.TagLine, p.PUUID,
			toNanos(p.LastIncrementalCursor), toNanos(p.SeasonBackfillCursor.Oldest), p.SeasonBackfillCursor.Complete, toNanos(p.AddedAt))
		if err != nil {
			return fmt.Errorf("save player %s: %w", p.RiotID, err)
		}
	}

	matchStmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO matches (match_id, queue_type, queue_id, timestamp_ns) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer matchStmt.Close()
	partStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO participants (match_id, position, puuid, team_id, win, kills, deaths, assists, champion_id, champion_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer partStmt.Close()

	var written []string
	for id, m := range snap.Matches {
		if s.saved[id] {
			continue
		}
		if _, err := matchStmt.ExecContext(ctx, m.MatchID, m.QueueType, m.QueueID, toNanos(m.Timestamp)); err != nil {
			return fmt.Errorf("save match %s: %w", id, err)
		}
		for i, p := range m.Participants {
			if _, err := partStmt.ExecContext(ctx, m.MatchID, i, p.PUUID, p.TeamID, p.Win, p.Kills, p.Deaths, p.Assists, p.ChampionID, p.ChampionName); err != nil {
				return fmt.Errorf("save participant of %s: %w", id, err)
			}
		}
		written = append(written, id)
	}

	indexStmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO player_matches (puuid, match_id) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer indexStmt.Close()
	for puuid, ids := range snap.Index {
		for _, id := range ids {
			if _, err := indexStmt.ExecContext(ctx, puuid, id); err != nil {
				return fmt.Errorf("save index of %s: %w", puuid, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	for _, id := range written {
		s.saved[id] = true
	}
	return nil
}

// Close is a no-op; the database is owned by the caller.
func (s *Store) Close() error {
	return nil
}
