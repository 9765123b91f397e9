package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/cache/filestore"
	"github.com/mauv0809/league-ledger/internal/cache/sqlstore"
	"github.com/mauv0809/league-ledger/internal/config"
	"github.com/mauv0809/league-ledger/internal/database"
	server "github.com/mauv0809/league-ledger/internal/http"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/metrics"
	"github.com/mauv0809/league-ledger/internal/notifier/slack"
	"github.com/mauv0809/league-ledger/internal/pubsub"
	"github.com/mauv0809/league-ledger/internal/ratelimit"
	"github.com/mauv0809/league-ledger/internal/riot"
	"github.com/mauv0809/league-ledger/internal/scheduler"
	"github.com/mauv0809/league-ledger/internal/timewindow"
	"github.com/mauv0809/league-ledger/internal/tracker"

	_ "time/tzdata"
)

// openBackend returns the configured durable backend and its teardown.
func openBackend(cfg config.CacheConfig) (cache.Backend, func(), error) {
	if cfg.Backend == config.BackendSQLite {
		db, dbTeardown, err := database.InitDB(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return sqlstore.New(db), dbTeardown, nil
	}
	format, err := filestore.ParseFormat(cfg.Format)
	if err != nil {
		return nil, nil, err
	}
	return filestore.New(cfg.Path, format), func() {}, nil
}

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("Unknown LOG_LEVEL, keeping info", "level", cfg.LogLevel)
	}

	loc, err := time.LoadLocation(cfg.Tracking.Timezone)
	if err != nil {
		log.Fatalf("Unknown tracking timezone %q: %s", cfg.Tracking.Timezone, err)
	}
	calendar := timewindow.New(loc, cfg.Tracking.SeasonStartDate)

	backend, backendTeardown, err := openBackend(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to open cache backend: %s", err)
	}
	defer func() {
		log.Info("Closing cache backend")
		if err := backend.Close(); err != nil {
			log.Error("Failed to close cache backend", "error", err)
		}
		backendTeardown()
	}()

	store := cache.New(backend)
	if err := store.Load(context.Background()); err != nil {
		// Keep serving so /health can report it; ingestion refuses an unhealthy store.
		log.Error("Cache failed to load, updates are disabled", "error", err)
	}
	log.Info("Cache initialization time recorded", "duration_ms", time.Since(startTime).Milliseconds())

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	metricsSvc.SetCachedMatches(store.MatchCount())

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	pubsubClient, err := pubsub.New(rootCtx, cfg.ProjectID)
	if err != nil {
		log.Fatalf("Failed to initialize pubsub: %s", err)
	}
	defer pubsubClient.Close()

	limiter := ratelimit.NewRiotDefault()
	riotClient := riot.NewClient(cfg.Riot.APIKey, cfg.Riot.Routing, limiter)
	ingestEngine := ingest.New(store, riotClient, limiter, calendar, metricsSvc, pubsubClient, ingest.Options{})
	analyticsEngine := analytics.New(store, calendar, analytics.Options{
		DuoMinGames:      cfg.Analytics.DuoMinGames,
		DuoFallbackFloor: cfg.Analytics.DuoFallbackFloor,
		FlexMinGames:     cfg.Analytics.FlexMinGames,
		FlexTopN:         cfg.Analytics.FlexTopN,
	})
	t := tracker.New(store, ingestEngine, analyticsEngine, pubsubClient)
	notifier := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)

	s := server.NewServer(rootCtx, t, metricsSvc, metricsHandler, cfg, notifier, limiter)

	sched, err := scheduler.New(t, notifier, loc, cfg.UpdateSchedule)
	if err != nil {
		log.Fatalf("Failed to schedule updates: %s", err)
	}
	sched.Start()

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)
	}

	// Create a context with a timeout for the shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt to gracefully shut down the server.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	} else {
		log.Info("Server gracefully stopped")
	}

	// Running updates stop after the current player and save their progress.
	cancelRoot()
	sched.Stop(ctx)
	s.Jobs.Wait()
	if err := store.Persist(ctx); err != nil {
		log.Error("Final cache save failed", "error", err)
	}

	log.Info("Server process shutting down")
}
