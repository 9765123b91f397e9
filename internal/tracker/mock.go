package tracker

import (
	"context"
	"sync"

	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/ingest"
)

// Mock is a mock implementation of the Tracker interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	AddPlayerFunc         func(ctx context.Context, riotID string) (*AddPlayerResult, error)
	ListPlayersFunc       func() []PlayerSummary
	IncrementalUpdateFunc func(ctx context.Context, riotIDs ...string) (*ingest.RunSummary, error)
	SeasonBackfillFunc    func(ctx context.Context, riotIDs ...string) (*ingest.RunSummary, error)
	DailyRecordsFunc      func(day string) (*analytics.DailyReport, error)
	TopDuosFunc           func(minGames int) *analytics.DuoReport
	TopFlexStacksFunc     func() *analytics.FlexReport
	QueueCountsFunc       func(riotID string) ([]analytics.QueueCount, error)
	PoolQueueCountsFunc   func() []analytics.QueueCount
	PlayerProfileFunc     func(riotID string, recentGames, championGames int) (*analytics.PlayerProfile, error)
	StatusFunc            func() Status

	// Call records
	AddPlayerCalls         []string
	IncrementalUpdateCalls [][]string
	SeasonBackfillCalls    [][]string
	DailyRecordsCalls      []string
	TopDuosCalls           []int
	QueueCountsCalls       []string
	PlayerProfileCalls     []PlayerProfileCall
}

// PlayerProfileCall records the arguments of one PlayerProfile call.
type PlayerProfileCall struct {
	RiotID        string
	RecentGames   int
	ChampionGames int
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddPlayerCalls = nil
	m.IncrementalUpdateCalls = nil
	m.SeasonBackfillCalls = nil
	m.DailyRecordsCalls = nil
	m.TopDuosCalls = nil
	m.QueueCountsCalls = nil
	m.PlayerProfileCalls = nil
}

func (m *Mock) AddPlayer(ctx context.Context, riotID string) (*AddPlayerResult, error) {
	m.mu.Lock()
	m.AddPlayerCalls = append(m.AddPlayerCalls, riotID)
	fn := m.AddPlayerFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, riotID)
	}
	return &AddPlayerResult{}, nil
}

func (m *Mock) ListPlayers() []PlayerSummary {
	m.mu.Lock()
	fn := m.ListPlayersFunc
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil
}

func (m *Mock) IncrementalUpdate(ctx context.Context, riotIDs ...string) (*ingest.RunSummary, error) {
	m.mu.Lock()
	m.IncrementalUpdateCalls = append(m.IncrementalUpdateCalls, riotIDs)
	fn := m.IncrementalUpdateFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, riotIDs...)
	}
	return &ingest.RunSummary{Kind: ingest.KindIncremental}, nil
}

func (m *Mock) SeasonBackfill(ctx context.Context, riotIDs ...string) (*ingest.RunSummary, error) {
	m.mu.Lock()
	m.SeasonBackfillCalls = append(m.SeasonBackfillCalls, riotIDs)
	fn := m.SeasonBackfillFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, riotIDs...)
	}
	return &ingest.RunSummary{Kind: ingest.KindBackfill}, nil
}

func (m *Mock) DailyRecords(day string) (*analytics.DailyReport, error) {
	m.mu.Lock()
	m.DailyRecordsCalls = append(m.DailyRecordsCalls, day)
	fn := m.DailyRecordsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(day)
	}
	return &analytics.DailyReport{}, nil
}

func (m *Mock) TopDuos(minGames int) *analytics.DuoReport {
	m.mu.Lock()
	m.TopDuosCalls = append(m.TopDuosCalls, minGames)
	fn := m.TopDuosFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(minGames)
	}
	return &analytics.DuoReport{}
}

func (m *Mock) TopFlexStacks() *analytics.FlexReport {
	m.mu.Lock()
	fn := m.TopFlexStacksFunc
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return &analytics.FlexReport{}
}

func (m *Mock) QueueCounts(riotID string) ([]analytics.QueueCount, error) {
	m.mu.Lock()
	m.QueueCountsCalls = append(m.QueueCountsCalls, riotID)
	fn := m.QueueCountsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(riotID)
	}
	return nil, nil
}

func (m *Mock) PoolQueueCounts() []analytics.QueueCount {
	m.mu.Lock()
	fn := m.PoolQueueCountsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil
}

func (m *Mock) PlayerProfile(riotID string, recentGames, championGames int) (*analytics.PlayerProfile, error) {
	m.mu.Lock()
	m.PlayerProfileCalls = append(m.PlayerProfileCalls, PlayerProfileCall{RiotID: riotID, RecentGames: recentGames, ChampionGames: championGames})
	fn := m.PlayerProfileFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(riotID, recentGames, championGames)
	}
	return &analytics.PlayerProfile{RiotID: riotID}, nil
}

func (m *Mock) Status() Status {
	m.mu.Lock()
	fn := m.StatusFunc
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return Status{Healthy: true}
}

// IncrementalUpdates returns how many incremental updates were requested.
func (m *Mock) IncrementalUpdates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.IncrementalUpdateCalls)
}
