package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/metrics"
	"github.com/mauv0809/league-ledger/internal/pubsub"
	"github.com/mauv0809/league-ledger/internal/ratelimit"
	"github.com/mauv0809/league-ledger/internal/riot"
	"github.com/mauv0809/league-ledger/internal/timewindow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDeps struct {
	store   cache.Store
	backend *cache.MockBackend
	client  *riot.MockClient
	pubsub  *pubsub.MockPubSubClient
}

func setupTracker(t *testing.T) (*service, *testDeps) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	calendar := timewindow.New(loc, time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC))

	deps := &testDeps{
		backend: cache.NewMockBackend(),
		client:  riot.NewMockClient(),
		pubsub:  pubsub.NewMock(),
	}
	deps.store = cache.New(deps.backend)
	require.NoError(t, deps.store.Load(context.Background()))

	ingestEngine := ingest.New(deps.store, deps.client, ratelimit.NewMock(), calendar, metrics.NewMock(), deps.pubsub, ingest.Options{})
	analyticsEngine := analytics.New(deps.store, calendar, analytics.Options{})
	svc := New(deps.store, ingestEngine, analyticsEngine, deps.pubsub).(*service)
	return svc, deps
}

func TestAddPlayer(t *testing.T) {
	svc, deps := setupTracker(t)
	deps.client.AccountByRiotIDFunc = func(ctx context.Context, gameName, tagLine string) (riot.Account, error) {
		// Upstream returns the canonical capitalisation.
		return riot.Account{PUUID: "puuid-alice", GameName: "Alice", TagLine: "NA1"}, nil
	}

	res, err := svc.AddPlayer(context.Background(), " alice#na1 ")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Alice#NA1", res.Player.RiotID)
	assert.Equal(t, "puuid-alice", res.Player.PUUID)
	assert.Equal(t, []string{"alice#na1"}, deps.client.AccountByRiotIDCalls)
	assert.Equal(t, 1, deps.backend.SaveCount(), "roster must be persisted")

	sent := deps.pubsub.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, pubsub.EventPlayerAdded, sent[0].Topic)

	t.Run("re-adding is idempotent", func(t *testing.T) {
		again, err := svc.AddPlayer(context.Background(), "Alice#NA1")
		require.NoError(t, err)
		assert.False(t, again.Created)
		assert.Equal(t, res.Player, again.Player)
		assert.Len(t, svc.ListPlayers(), 1)
		assert.Len(t, deps.pubsub.Sent(), 1)
	})
}

func TestAddPlayer_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		riotID  string
		lookup  error
		wantErr error
	}{
		{name: "missing tag", riotID: "Alice", wantErr: riot.ErrInvalidRiotID},
		{name: "unknown account", riotID: "Ghost#NA1", lookup: riot.ErrNotFound, wantErr: cache.ErrPlayerNotFound},
		{name: "transport failure", riotID: "Alice#NA1", lookup: &riot.TransportError{URL: "x", StatusCode: 500, Err: errors.New("boom")}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, deps := setupTracker(t)
			deps.client.AccountByRiotIDFunc = func(ctx context.Context, gameName, tagLine string) (riot.Account, error) {
				return riot.Account{}, tc.lookup
			}
			_, err := svc.AddPlayer(context.Background(), tc.riotID)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			assert.Empty(t, svc.ListPlayers())
			assert.Equal(t, 0, deps.backend.SaveCount())
		})
	}
}

func TestAddPlayer_RefusesCorruptStore(t *testing.T) {
	svc, deps := setupTracker(t)
	deps.backend.LoadFunc = func(ctx context.Context) (*cache.Snapshot, error) {
		return &cache.Snapshot{Metadata: cache.Metadata{SchemaVersion: 99}}, nil
	}
	require.Error(t, deps.store.Load(context.Background()))

	_, err := svc.AddPlayer(context.Background(), "Alice#NA1")
	assert.ErrorIs(t, err, cache.ErrCorruptStore)
	assert.Empty(t, svc.ListPlayers(), "a refused player is not tracked")
	assert.Empty(t, deps.client.AccountByRiotIDCalls)
	assert.Equal(t, 0, deps.backend.SaveCount())
}

func TestPlayerProfile(t *testing.T) {
	svc, deps := setupTracker(t)
	_, err := deps.store.UpsertPlayer("Alice#NA1", "puuid-alice")
	require.NoError(t, err)
	_, err = deps.store.StoreMatch(cache.MatchRecord{
		MatchID: "NA1_1", QueueID: cache.QueueIDSoloDuo, QueueType: cache.QueueSoloDuo,
		Timestamp:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Participants: []cache.Participant{
			{PUUID: "puuid-alice", TeamID: 100, Win: true, Kills: 3, Deaths: 1, Assists: 4, ChampionID: 157, ChampionName: "Yasuo"},
		},
	})
	require.NoError(t, err)

	profile, err := svc.PlayerProfile("Alice#NA1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Recent.Games)
	require.Len(t, profile.Champions, 1)
	assert.Equal(t, "Yasuo", profile.Champions[0].Champion)

	counts := svc.PoolQueueCounts()
	require.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].Games)

	_, err = svc.PlayerProfile("Nobody#NA1", 0, 0)
	assert.ErrorIs(t, err, cache.ErrPlayerNotFound)
}

func TestListPlayers(t *testing.T) {
	svc, deps := setupTracker(t)
	_, err := deps.store.UpsertPlayer("Bob#NA1", "puuid-bob")
	require.NoError(t, err)
	_, err = deps.store.UpsertPlayer("Alice#NA1", "puuid-alice")
	require.NoError(t, err)
	_, err = deps.store.StoreMatch(cache.MatchRecord{
		MatchID: "NA1_1", QueueID: cache.QueueIDSoloDuo, QueueType: cache.QueueSoloDuo,
		Timestamp:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Participants: []cache.Participant{{PUUID: "puuid-bob", TeamID: 100, Win: true}},
	})
	require.NoError(t, err)

	players := svc.ListPlayers()
	require.Len(t, players, 2)
	assert.Equal(t, "Alice#NA1", players[0].RiotID)
	assert.Equal(t, 0, players[0].Matches)
	assert.Equal(t, "Bob#NA1", players[1].RiotID)
	assert.Equal(t, 1, players[1].Matches)
}

func TestDailyRecords(t *testing.T) {
	svc, _ := setupTracker(t)
	// 2026-02-10 01:00 New York is still the 9th.
	svc.now = func() time.Time { return time.Date(2026, 2, 10, 6, 0, 0, 0, time.UTC) }

	report, err := svc.DailyRecords("")
	require.NoError(t, err)
	assert.Equal(t, timewindow.DayKey("2026-02-09"), report.Day)

	report, err = svc.DailyRecords("2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, timewindow.DayKey("2026-02-01"), report.Day)

	_, err = svc.DailyRecords("02/01/2026")
	assert.Error(t, err)
}

func TestIncrementalUpdate_UnknownPlayer(t *testing.T) {
	svc, _ := setupTracker(t)
	summary, err := svc.IncrementalUpdate(context.Background(), "Nobody#NA1")
	require.NoError(t, err)
	require.Len(t, summary.Players, 1)
	assert.ErrorIs(t, summary.Players[0].Err, cache.ErrPlayerNotFound)
	assert.Equal(t, 1, summary.Failures)
}

func TestStatus(t *testing.T) {
	svc, deps := setupTracker(t)
	status := svc.Status()
	assert.True(t, status.Healthy)
	assert.Equal(t, cache.SchemaVersion, status.SchemaVersion)

	deps.backend.LoadFunc = func(ctx context.Context) (*cache.Snapshot, error) {
		return &cache.Snapshot{Metadata: cache.Metadata{SchemaVersion: 99}}, nil
	}
	require.Error(t, deps.store.Load(context.Background()))
	status = svc.Status()
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Error, cache.ErrCorruptStore.Error())
}
