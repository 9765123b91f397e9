package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncIngestionRuns(kind string)
	AddMatchesIngested(kind string, n int)
	IncPlayerFailures(kind string)
	IncThrottled()
	ObserveRunDuration(kind string, seconds float64)
	SetCachedMatches(n int)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
