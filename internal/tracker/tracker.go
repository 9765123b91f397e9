package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/pubsub"
	"github.com/mauv0809/league-ledger/internal/riot"
	"github.com/mauv0809/league-ledger/internal/timewindow"
)

// New creates the Tracker backed by the given engines.
func New(store cache.Store, ingestEngine *ingest.Engine, analyticsEngine *analytics.Engine, pubsubClient pubsub.PubSubClient) Tracker {
	return &service{
		store:     store,
		ingest:    ingestEngine,
		analytics: analyticsEngine,
		pubsub:    pubsubClient,
		now:       time.Now,
	}
}

func (s *service) AddPlayer(ctx context.Context, riotID string) (*AddPlayerResult, error) {
	gameName, tagLine, err := riot.ParseRiotID(riotID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Healthy(); err != nil {
		return nil, fmt.Errorf("refusing to add %s: %w", riotID, err)
	}
	account, err := s.ingest.ResolvePlayer(ctx, gameName, tagLine)
	if err != nil {
		if errors.Is(err, riot.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", cache.ErrPlayerNotFound, riotID)
		}
		return nil, fmt.Errorf("resolving %s: %w", riotID, err)
	}
	if account.GameName == "" || account.TagLine == "" {
		account.GameName, account.TagLine = gameName, tagLine
	}
	canonical := account.RiotID()

	_, existed := s.store.Player(canonical)
	player, err := s.store.UpsertPlayer(canonical, account.PUUID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Persist(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("saving roster: %w", err)
	}

	if !existed {
		log.Info("Player added", "riot_id", canonical)
		event := pubsub.PlayerAddedEvent{RiotID: canonical, PUUID: account.PUUID}
		if err := s.pubsub.SendMessage(ctx, pubsub.EventPlayerAdded, event); err != nil {
			log.Warn("Failed to publish player added event", "riot_id", canonical, "error", err)
		}
	}
	return &AddPlayerResult{Player: player, Created: !existed}, nil
}

func (s *service) ListPlayers() []PlayerSummary {
	players := s.store.Players()
	out := make([]PlayerSummary, 0, len(players))
	for _, p := range players {
		n := 0
		for range s.store.MatchesForPlayer(p.PUUID, cache.NewestFirst) {
			n++
		}
		out = append(out, PlayerSummary{
			RiotID:           p.RiotID,
			PUUID:            p.PUUID,
			Matches:          n,
			LastIncremental:  p.LastIncrementalCursor,
			BackfillOldest:   p.SeasonBackfillCursor.Oldest,
			BackfillComplete: p.SeasonBackfillCursor.Complete,
			AddedAt:          p.AddedAt,
		})
	}
	return out
}

func (s *service) IncrementalUpdate(ctx context.Context, riotIDs ...string) (*ingest.RunSummary, error) {
	return s.ingest.IncrementalUpdate(ctx, riotIDs)
}

func (s *service) SeasonBackfill(ctx context.Context, riotIDs ...string) (*ingest.RunSummary, error) {
	return s.ingest.SeasonBackfill(ctx, riotIDs)
}

func (s *service) DailyRecords(day string) (*analytics.DailyReport, error) {
	if day == "" {
		return s.analytics.TodayRecords(s.now())
	}
	key, err := timewindow.ParseDayKey(day)
	if err != nil {
		return nil, err
	}
	return s.analytics.DailyRecords(key)
}

func (s *service) TopDuos(minGames int) *analytics.DuoReport {
	return s.analytics.TopDuos(minGames)
}

func (s *service) TopFlexStacks() *analytics.FlexReport {
	return s.analytics.TopFlexStacks()
}

func (s *service) QueueCounts(riotID string) ([]analytics.QueueCount, error) {
	return s.analytics.QueueCounts(riotID)
}

func (s *service) PoolQueueCounts() []analytics.QueueCount {
	return s.analytics.PoolQueueCounts()
}

func (s *service) PlayerProfile(riotID string, recentGames, championGames int) (*analytics.PlayerProfile, error) {
	return s.analytics.PlayerProfile(riotID, recentGames, championGames)
}

func (s *service) Status() Status {
	meta := s.store.Metadata()
	status := Status{
		Healthy:        true,
		Players:        len(s.store.Players()),
		Matches:        s.store.MatchCount(),
		SchemaVersion:  meta.SchemaVersion,
		LastGlobalSave: meta.LastGlobalSave,
		LastUpdate:     meta.LastUpdate,
	}
	if err := s.store.Healthy(); err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}
	return status
}
