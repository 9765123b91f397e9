package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/cache/sqlstore"
	"github.com/mauv0809/league-ledger/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackend(t *testing.T, path string) *sqlstore.Store {
	t.Helper()
	db, teardown, err := database.InitDB(path)
	require.NoError(t, err)
	t.Cleanup(teardown)
	return sqlstore.New(db)
}

func matchesOf(s cache.Store) []cache.MatchRecord {
	var out []cache.MatchRecord
	for m := range s.Matches() {
		out = append(out, m)
	}
	return out
}

func TestLoad_EmptyDatabase(t *testing.T) {
	backend := setupBackend(t, ":memory:")
	snap, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "league.db")
	ctx := context.Background()
	ts := time.Date(2026, 1, 12, 23, 15, 0, 0, time.UTC)

	saved := cache.New(setupBackend(t, path))
	require.NoError(t, saved.Load(ctx))
	_, err := saved.UpsertPlayer("Alice#NA1", "puuid-a")
	require.NoError(t, err)
	_, err = saved.UpsertPlayer("Bob#NA1", "puuid-b")
	require.NoError(t, err)

	for i, id := range []string{"NA1_1", "NA1_2"} {
		_, err := saved.StoreMatch(cache.MatchRecord{
			MatchID:   id,
			QueueType: cache.QueueSoloDuo,
			QueueID:   cache.QueueIDSoloDuo,
			Timestamp: ts.Add(time.Duration(i) * time.Hour),
			Participants: []cache.Participant{
				{PUUID: "puuid-a", TeamID: 100, Win: true, Kills: 3, Deaths: 1, Assists: 9, ChampionID: 1, ChampionName: "Annie"},
				{PUUID: "puuid-b", TeamID: 100, Win: true, Kills: 8, Deaths: 2, Assists: 4, ChampionID: 2},
				{PUUID: "stranger", TeamID: 200, Win: false},
			},
		})
		require.NoError(t, err)
	}
	inc := ts.Add(time.Hour)
	require.NoError(t, saved.UpdateCursor("puuid-a", cache.CursorUpdate{
		Incremental: &inc,
		Backfill:    &cache.BackfillCursor{Oldest: ts},
	}))
	require.NoError(t, saved.Persist(ctx))

	// A second save only touches changed rows and must not fail on existing ones.
	require.NoError(t, saved.UpdateCursor("puuid-a", cache.CursorUpdate{
		Backfill: &cache.BackfillCursor{Oldest: ts, Complete: true},
	}))
	saved.MarkUpdated(ts.Add(2 * time.Hour))
	require.NoError(t, saved.Persist(ctx))

	reloaded := cache.New(setupBackend(t, path))
	require.NoError(t, reloaded.Load(ctx))

	assert.Equal(t, saved.Players(), reloaded.Players())
	assert.Equal(t, matchesOf(saved), matchesOf(reloaded))
	assert.Equal(t, saved.Metadata(), reloaded.Metadata())

	rec, ok := reloaded.Player("Alice#NA1")
	require.True(t, ok)
	assert.True(t, rec.SeasonBackfillCursor.Complete)

	var ids []string
	for m := range reloaded.MatchesForPlayer("puuid-b", cache.NewestFirst) {
		ids = append(ids, m.MatchID)
	}
	assert.Equal(t, []string{"NA1_2", "NA1_1"}, ids)
}
