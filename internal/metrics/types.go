package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	IngestionRuns      *prometheus.CounterVec
	MatchesIngested    *prometheus.CounterVec
	PlayerFailures     *prometheus.CounterVec
	Throttled          prometheus.Counter
	RunDuration        *prometheus.HistogramVec
	CachedMatches      prometheus.Gauge
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
