package http

import (
	"context"
	"net/http"

	"github.com/mauv0809/league-ledger/internal/config"
	"github.com/mauv0809/league-ledger/internal/http/handlers"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/metrics"
	"github.com/mauv0809/league-ledger/internal/notifier"
	"github.com/mauv0809/league-ledger/internal/tracker"
)

// NewServer wires the routes. Background work started by slash commands is
// cancelled with ctx; call Server.Jobs.Wait before exiting.
func NewServer(ctx context.Context, t tracker.Tracker, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, limiter handlers.StatsProvider) *Server {
	server := &Server{
		Tracker:        t,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Limiter:        limiter,
		Jobs:           handlers.NewJobs(ctx),
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(handlers.HealthCheckHandler(s.Tracker), paramsMiddleware))
	s.Router.Handle("GET /players", Chain(handlers.ListPlayersHandler(s.Tracker), paramsMiddleware))
	s.Router.Handle("GET /players/add", Chain(handlers.AddPlayerHandler(s.Tracker), paramsMiddleware))
	s.Router.Handle("GET /players/queues", Chain(handlers.QueueCountsHandler(s.Tracker), paramsMiddleware))
	s.Router.Handle("GET /players/profile", Chain(handlers.PlayerProfileHandler(s.Tracker), paramsMiddleware))
	s.Router.Handle("GET /queues", Chain(handlers.PoolQueueCountsHandler(s.Tracker), paramsMiddleware))
	s.Router.Handle("GET /update", Chain(handlers.UpdateHandler(s.Tracker, ingest.KindIncremental), paramsMiddleware))
	s.Router.Handle("GET /backfill", Chain(handlers.UpdateHandler(s.Tracker, ingest.KindBackfill), paramsMiddleware))
	s.Router.Handle("GET /records/daily", Chain(handlers.DailyRecordsHandler(s.Tracker), paramsMiddleware))
	s.Router.Handle("GET /duos", Chain(handlers.TopDuosHandler(s.Tracker), paramsMiddleware))
	s.Router.Handle("GET /stacks", Chain(handlers.TopFlexStacksHandler(s.Tracker), paramsMiddleware))
	s.Router.Handle("GET /ratelimit", Chain(handlers.RateLimitHandler(s.Limiter), paramsMiddleware))

	slackAuth := slackVerifyMiddleware(s.Cfg.Slack.SigningSecret)
	s.Router.Handle("POST /slack/command/addplayer", Chain(handlers.AddPlayerCommandHandler(s.Tracker, s.Notifier), paramsMiddleware, slackAuth))
	s.Router.Handle("POST /slack/command/players", Chain(handlers.PlayersCommandHandler(s.Tracker, s.Notifier), paramsMiddleware, slackAuth))
	s.Router.Handle("POST /slack/command/dailyrecords", Chain(handlers.DailyRecordsCommandHandler(s.Tracker, s.Notifier), paramsMiddleware, slackAuth))
	s.Router.Handle("POST /slack/command/topduos", Chain(handlers.TopDuosCommandHandler(s.Tracker, s.Notifier), paramsMiddleware, slackAuth))
	s.Router.Handle("POST /slack/command/playerinfo", Chain(handlers.PlayerProfileCommandHandler(s.Tracker, s.Notifier), paramsMiddleware, slackAuth))
	s.Router.Handle("POST /slack/command/topflexstacks", Chain(handlers.TopFlexStacksCommandHandler(s.Tracker, s.Notifier), paramsMiddleware, slackAuth))
	s.Router.Handle("POST /slack/command/updaterecords", Chain(handlers.UpdateCommandHandler(s.Tracker, s.Notifier, s.Jobs, ingest.KindIncremental), paramsMiddleware, slackAuth))
	s.Router.Handle("POST /slack/command/updateseason", Chain(handlers.UpdateCommandHandler(s.Tracker, s.Notifier, s.Jobs, ingest.KindBackfill), paramsMiddleware, slackAuth))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
