package riot

import (
	"context"
	"sync"

	"github.com/mauv0809/league-ledger/internal/cache"
)

// MockClient is a mock implementation of the Client interface for testing.
// It is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// Spies for method calls
	AccountByRiotIDFunc   func(ctx context.Context, gameName, tagLine string) (Account, error)
	FetchMatchIDsPageFunc func(ctx context.Context, puuid string, page PageRequest) ([]string, error)
	FetchMatchDetailFunc  func(ctx context.Context, matchID string) (cache.MatchRecord, error)

	// Call records
	AccountByRiotIDCalls   []string
	FetchMatchIDsPageCalls []struct {
		PUUID string
		Page  PageRequest
	}
	FetchMatchDetailCalls []string
}

// NewMockClient creates a new mock instance.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Reset clears all call records.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccountByRiotIDCalls = nil
	m.FetchMatchIDsPageCalls = nil
	m.FetchMatchDetailCalls = nil
}

func (m *MockClient) AccountByRiotID(ctx context.Context, gameName, tagLine string) (Account, error) {
	m.mu.Lock()
	m.AccountByRiotIDCalls = append(m.AccountByRiotIDCalls, gameName+"#"+tagLine)
	fn := m.AccountByRiotIDFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, gameName, tagLine)
	}
	return Account{}, ErrNotFound
}

func (m *MockClient) FetchMatchIDsPage(ctx context.Context, puuid string, page PageRequest) ([]string, error) {
	m.mu.Lock()
	m.FetchMatchIDsPageCalls = append(m.FetchMatchIDsPageCalls, struct {
		PUUID string
		Page  PageRequest
	}{puuid, page})
	fn := m.FetchMatchIDsPageFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, puuid, page)
	}
	return []string{}, nil
}

func (m *MockClient) FetchMatchDetail(ctx context.Context, matchID string) (cache.MatchRecord, error) {
	m.mu.Lock()
	m.FetchMatchDetailCalls = append(m.FetchMatchDetailCalls, matchID)
	fn := m.FetchMatchDetailFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, matchID)
	}
	return cache.MatchRecord{}, ErrNotFound
}

// DetailCalls returns a copy of the recorded FetchMatchDetail ids.
func (m *MockClient) DetailCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.FetchMatchDetailCalls...)
}

// PageCalls returns the number of FetchMatchIDsPage calls.
func (m *MockClient) PageCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FetchMatchIDsPageCalls)
}
