package http

import (
	"net/http"

	"github.com/mauv0809/league-ledger/internal/config"
	"github.com/mauv0809/league-ledger/internal/http/handlers"
	"github.com/mauv0809/league-ledger/internal/metrics"
	"github.com/mauv0809/league-ledger/internal/notifier"
	"github.com/mauv0809/league-ledger/internal/tracker"
)

type Server struct {
	Tracker        tracker.Tracker
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Limiter        handlers.StatsProvider
	Jobs           *handlers.Jobs
	Router         *http.ServeMux
}
