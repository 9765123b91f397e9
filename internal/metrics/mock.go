package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	ingestionRuns    map[string]int
	matchesIngested  map[string]int
	playerFailures   map[string]int
	throttled        int
	runDurations     []float64
	cachedMatches    int
	slackNotifSent   int
	slackNotifFailed int
	startupTime      float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		ingestionRuns:   make(map[string]int),
		matchesIngested: make(map[string]int),
		playerFailures:  make(map[string]int),
	}
}

func (m *Mock) IncIngestionRuns(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingestionRuns[kind]++
}

func (m *Mock) AddMatchesIngested(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesIngested[kind] += n
}

func (m *Mock) IncPlayerFailures(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerFailures[kind]++
}

func (m *Mock) IncThrottled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttled++
}

func (m *Mock) ObserveRunDuration(kind string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runDurations = append(m.runDurations, seconds)
}

func (m *Mock) SetCachedMatches(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cachedMatches = n
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// IngestionRuns returns how often IncIngestionRuns was called for kind.
func (m *Mock) IngestionRuns(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ingestionRuns[kind]
}

// MatchesIngested returns the total passed to AddMatchesIngested for kind.
func (m *Mock) MatchesIngested(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesIngested[kind]
}

// PlayerFailures returns how often IncPlayerFailures was called for kind.
func (m *Mock) PlayerFailures(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerFailures[kind]
}

// Throttled returns the number of times IncThrottled was called.
func (m *Mock) Throttled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.throttled
}

// CachedMatches returns the last value passed to SetCachedMatches.
func (m *Mock) CachedMatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cachedMatches
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
