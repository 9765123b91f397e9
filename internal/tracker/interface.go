package tracker

import (
	"context"

	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/ingest"
)

// Tracker is the command surface of the service. Every method returns
// structured data; rendering is left to the front ends.
type Tracker interface {
	// AddPlayer refuses to touch an unhealthy store. When only the save
	// fails the player stays tracked in memory and is written by the next save.
	AddPlayer(ctx context.Context, riotID string) (*AddPlayerResult, error)
	ListPlayers() []PlayerSummary
	IncrementalUpdate(ctx context.Context, riotIDs ...string) (*ingest.RunSummary, error)
	SeasonBackfill(ctx context.Context, riotIDs ...string) (*ingest.RunSummary, error)
	// DailyRecords reports the given "YYYY-MM-DD" tracking day, or today when day is empty.
	DailyRecords(day string) (*analytics.DailyReport, error)
	// TopDuos ranks Solo/Duo pairs. minGames <= 0 uses the configured default.
	TopDuos(minGames int) *analytics.DuoReport
	TopFlexStacks() *analytics.FlexReport
	QueueCounts(riotID string) ([]analytics.QueueCount, error)
	PoolQueueCounts() []analytics.QueueCount
	// PlayerProfile summarizes recent form. Non-positive windows use the defaults.
	PlayerProfile(riotID string, recentGames, championGames int) (*analytics.PlayerProfile, error)
	Status() Status
}
