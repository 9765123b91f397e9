package cache

import (
	"context"
	"sync"
)

// MockBackend is an in-memory Backend for testing. It is safe for concurrent use.
type MockBackend struct {
	mu sync.Mutex

	LoadFunc func(ctx context.Context) (*Snapshot, error)
	SaveFunc func(ctx context.Context, snap *Snapshot) error

	// Saved is the most recent snapshot accepted by Save.
	Saved *Snapshot

	LoadCalls  int
	SaveCalls  []*Snapshot
	CloseCalls int
}

var _ Backend = (*MockBackend)(nil)

// NewMockBackend creates a new mock instance.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Reset clears all call records.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls = 0
	m.SaveCalls = nil
	m.CloseCalls = 0
}

func (m *MockBackend) Load(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return m.Saved, nil
}

func (m *MockBackend) Save(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, snap)
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, snap); err != nil {
			return err
		}
	}
	m.Saved = snap
	return nil
}

func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// SaveCount returns the number of Save calls.
func (m *MockBackend) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SaveCalls)
}

// LastSaved returns the most recent accepted snapshot.
func (m *MockBackend) LastSaved() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Saved
}
