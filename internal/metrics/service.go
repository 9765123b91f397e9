package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		IngestionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_ingestion_runs_total",
			Help: "The total number of ingestion runs, by kind.",
		}, []string{"kind"}),
		MatchesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_matches_ingested_total",
			Help: "The total number of new matches stored, by ingestion kind.",
		}, []string{"kind"}),
		PlayerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_player_failures_total",
			Help: "The total number of players whose pagination aborted, by ingestion kind.",
		}, []string{"kind"}),
		Throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_upstream_throttled_total",
			Help: "The total number of upstream rate-limit rejections.",
		}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "league_ingestion_duration_seconds",
			Help:    "The duration of ingestion runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"kind"}),
		CachedMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "league_cached_matches",
			Help: "The number of matches held in the cache.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "league_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.IngestionRuns,
		s.MatchesIngested,
		s.PlayerFailures,
		s.Throttled,
		s.RunDuration,
		s.CachedMatches,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncIngestionRuns(kind string) {
	s.IngestionRuns.WithLabelValues(kind).Inc()
}

func (s *Service) AddMatchesIngested(kind string, n int) {
	s.MatchesIngested.WithLabelValues(kind).Add(float64(n))
}

func (s *Service) IncPlayerFailures(kind string) {
	s.PlayerFailures.WithLabelValues(kind).Inc()
}

func (s *Service) IncThrottled() {
	s.Throttled.Inc()
}

func (s *Service) ObserveRunDuration(kind string, seconds float64) {
	s.RunDuration.WithLabelValues(kind).Observe(seconds)
}

func (s *Service) SetCachedMatches(n int) {
	s.CachedMatches.Set(float64(n))
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
