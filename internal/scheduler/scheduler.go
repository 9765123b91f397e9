package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/notifier"
	"github.com/mauv0809/league-ledger/internal/tracker"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic incremental update and posts each summary.
type Scheduler struct {
	cron     *cron.Cron
	tracker  tracker.Tracker
	notifier notifier.Notifier
	ctx      context.Context
	cancel   context.CancelFunc
}

// New schedules IncrementalUpdate on spec, evaluated in loc. An empty spec
// returns a Scheduler that never runs.
func New(t tracker.Tracker, n notifier.Notifier, loc *time.Location, spec string) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		tracker:  t,
		notifier: n,
		ctx:      ctx,
		cancel:   cancel,
	}
	if spec == "" {
		log.Info("Periodic update disabled")
		return s, nil
	}

	logger := cron.PrintfLogger(log.Default())
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := s.cron.AddFunc(spec, s.runIncremental); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid update schedule %q: %w", spec, err)
	}
	log.Info("Periodic update scheduled", "schedule", spec)
	return s, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	if s.cron != nil {
		s.cron.Start()
	}
}

// Stop cancels a running update and waits for it to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn("Timed out waiting for scheduled update to stop")
	}
}

func (s *Scheduler) runIncremental() {
	log.Info("Scheduled incremental update starting")
	summary, err := s.tracker.IncrementalUpdate(s.ctx)
	if errors.Is(err, ingest.ErrUpdateInProgress) {
		log.Info("Skipping scheduled update, another update is running")
		return
	}
	if err != nil {
		log.Error("Scheduled update failed", "error", err)
	}
	if nerr := notifier.ReportRun(s.notifier, ingest.KindIncremental, summary, err, false); nerr != nil {
		log.Warn("Failed to post scheduled update summary", "error", nerr)
	}
}
