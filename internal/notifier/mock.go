package notifier

import (
	"sync"

	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/tracker"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendRunSummaryCalls []*ingest.RunSummary
	SendRunFailedCalls  []struct {
		Kind  ingest.Kind
		Cause error
	}
	FormatErrorResponseCalls []string

	// Spies
	SendRunSummaryFunc              func(summary *ingest.RunSummary, dryRun bool) error
	FormatPlayersResponseFunc       func(players []tracker.PlayerSummary) (any, error)
	FormatPlayerAddedResponseFunc   func(result *tracker.AddPlayerResult) (any, error)
	FormatDailyRecordsResponseFunc  func(report *analytics.DailyReport) (any, error)
	FormatTopDuosResponseFunc       func(report *analytics.DuoReport) (any, error)
	FormatTopFlexStacksResponseFunc func(report *analytics.FlexReport) (any, error)
	FormatPlayerProfileResponseFunc func(profile *analytics.PlayerProfile) (any, error)
	FormatUpdateAcceptedFunc        func(kind ingest.Kind) (any, error)
	FormatErrorResponseFunc         func(text string) (any, error)

	// Signals each SendRunSummary or SendRunFailed call when set.
	Done chan struct{}
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRunSummaryCalls = nil
	m.SendRunFailedCalls = nil
	m.FormatErrorResponseCalls = nil
}

func (m *Mock) signal() {
	if m.Done != nil {
		m.Done <- struct{}{}
	}
}

func (m *Mock) SendRunSummary(summary *ingest.RunSummary, dryRun bool) error {
	m.mu.Lock()
	m.SendRunSummaryCalls = append(m.SendRunSummaryCalls, summary)
	fn := m.SendRunSummaryFunc
	m.mu.Unlock()
	defer m.signal()
	if fn != nil {
		return fn(summary, dryRun)
	}
	return nil
}

func (m *Mock) SendRunFailed(kind ingest.Kind, cause error, dryRun bool) error {
	m.mu.Lock()
	m.SendRunFailedCalls = append(m.SendRunFailedCalls, struct {
		Kind  ingest.Kind
		Cause error
	}{kind, cause})
	m.mu.Unlock()
	m.signal()
	return nil
}

func (m *Mock) FormatPlayersResponse(players []tracker.PlayerSummary) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatPlayersResponseFunc != nil {
		return m.FormatPlayersResponseFunc(players)
	}
	return "formatted_players", nil
}

func (m *Mock) FormatPlayerAddedResponse(result *tracker.AddPlayerResult) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatPlayerAddedResponseFunc != nil {
		return m.FormatPlayerAddedResponseFunc(result)
	}
	return "formatted_player_added", nil
}

func (m *Mock) FormatDailyRecordsResponse(report *analytics.DailyReport) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatDailyRecordsResponseFunc != nil {
		return m.FormatDailyRecordsResponseFunc(report)
	}
	return "formatted_daily_records", nil
}

func (m *Mock) FormatTopDuosResponse(report *analytics.DuoReport) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatTopDuosResponseFunc != nil {
		return m.FormatTopDuosResponseFunc(report)
	}
	return "formatted_top_duos", nil
}

func (m *Mock) FormatTopFlexStacksResponse(report *analytics.FlexReport) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatTopFlexStacksResponseFunc != nil {
		return m.FormatTopFlexStacksResponseFunc(report)
	}
	return "formatted_top_flex_stacks", nil
}

func (m *Mock) FormatPlayerProfileResponse(profile *analytics.PlayerProfile) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatPlayerProfileResponseFunc != nil {
		return m.FormatPlayerProfileResponseFunc(profile)
	}
	return "formatted_player_profile", nil
}

func (m *Mock) FormatUpdateAcceptedResponse(kind ingest.Kind) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatUpdateAcceptedFunc != nil {
		return m.FormatUpdateAcceptedFunc(kind)
	}
	return "formatted_update_accepted", nil
}

func (m *Mock) FormatErrorResponse(text string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FormatErrorResponseCalls = append(m.FormatErrorResponseCalls, text)
	if m.FormatErrorResponseFunc != nil {
		return m.FormatErrorResponseFunc(text)
	}
	return "formatted_error", nil
}

// RunSummaries returns the summaries sent so far.
func (m *Mock) RunSummaries() []*ingest.RunSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ingest.RunSummary(nil), m.SendRunSummaryCalls...)
}

// RunFailures returns how many run failures were sent.
func (m *Mock) RunFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendRunFailedCalls)
}
