package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/metrics"
	"github.com/mauv0809/league-ledger/internal/pubsub"
	"github.com/mauv0809/league-ledger/internal/ratelimit"
	"github.com/mauv0809/league-ledger/internal/riot"
	"github.com/mauv0809/league-ledger/internal/timewindow"
)

// New creates a new Engine. The limiter must be the one gating client.
func New(store cache.Store, client riot.Client, limiter ratelimit.Limiter, calendar timewindow.Calculator,
	metrics metrics.Metrics, pubsub pubsub.PubSubClient, opts Options) *Engine {
	if opts.IncrementalPageSize <= 0 {
		opts.IncrementalPageSize = DefaultIncrementalPageSize
	}
	if opts.BackfillPageSize <= 0 {
		opts.BackfillPageSize = DefaultBackfillPageSize
	}
	if opts.MaxThrottleRetries <= 0 {
		opts.MaxThrottleRetries = DefaultMaxThrottleRetries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:    store,
		client:   client,
		limiter:  limiter,
		calendar: calendar,
		metrics:  metrics,
		pubsub:   pubsub,
		opts:     opts,
	}
}

// IncrementalUpdate fetches each player's newest matches down to their
// incremental cursor. An empty riotIDs means every tracked player.
func (e *Engine) IncrementalUpdate(ctx context.Context, riotIDs []string) (*RunSummary, error) {
	return e.run(ctx, KindIncremental, riotIDs, e.incrementalPlayer)
}

// SeasonBackfill walks each incomplete player's history back to the season start.
// An empty riotIDs means every tracked player.
func (e *Engine) SeasonBackfill(ctx context.Context, riotIDs []string) (*RunSummary, error) {
	return e.run(ctx, KindBackfill, riotIDs, e.backfillPlayer)
}

// ResolvePlayer looks up an account, retrying through upstream throttling.
func (e *Engine) ResolvePlayer(ctx context.Context, gameName, tagLine string) (riot.Account, error) {
	return withThrottleRetry(ctx, e, func() (riot.Account, error) {
		return e.client.AccountByRiotID(ctx, gameName, tagLine)
	})
}

type playerFunc func(ctx context.Context, p cache.PlayerRecord, res *PlayerResult, summary *RunSummary) error

// fatalError marks failures that must abort the whole run.
type fatalError struct{ err error }

func (f fatalError) Error() string { return f.err.Error() }
func (f fatalError) Unwrap() error { return f.err }

func (e *Engine) run(ctx context.Context, kind Kind, riotIDs []string, fn playerFunc) (*RunSummary, error) {
	if !e.updateMu.TryLock() {
		log.Warn("Rejecting overlapping update", "kind", kind)
		return nil, ErrUpdateInProgress
	}
	defer e.updateMu.Unlock()

	if err := e.store.Healthy(); err != nil {
		return nil, fmt.Errorf("refusing to ingest: %w", err)
	}

	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Kind:      kind,
		StartedAt: e.opts.Now().UTC(),
	}
	e.metrics.IncIngestionRuns(string(kind))
	log.Info("Starting ingestion run", "run_id", summary.RunID, "kind", kind)

	players, unknown := e.selectPlayers(riotIDs)
	for _, riotID := range unknown {
		summary.Players = append(summary.Players, PlayerResult{
			RiotID: riotID,
			Err:    fmt.Errorf("%w: %s", cache.ErrPlayerNotFound, riotID),
		})
	}

	// Progress must reach disk even when the caller cancelled.
	persistCtx := context.WithoutCancel(ctx)
	var runErr error
	for _, p := range players {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		res := PlayerResult{RiotID: p.RiotID}
		err := fn(ctx, p, &res, summary)
		if perr := e.store.Persist(persistCtx); perr != nil {
			log.Error("Failed to persist after player", "riot_id", p.RiotID, "error", perr)
			err = errors.Join(err, perr)
		}

		var fatal fatalError
		switch {
		case errors.As(err, &fatal):
			res.Err = fatal.err
			runErr = fatal.err
		case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
			summary.Cancelled = true
		case err != nil:
			res.Err = err
			log.Error("Player ingestion failed", "run_id", summary.RunID, "riot_id", p.RiotID, "error", err)
		}
		summary.Players = append(summary.Players, res)
		if runErr != nil || summary.Cancelled {
			break
		}
	}

	e.finish(persistCtx, summary)
	if runErr != nil {
		return summary, runErr
	}
	return summary, nil
}

func (e *Engine) selectPlayers(riotIDs []string) ([]cache.PlayerRecord, []string) {
	if len(riotIDs) == 0 {
		return e.store.Players(), nil
	}
	var players []cache.PlayerRecord
	var unknown []string
	for _, id := range riotIDs {
		p, ok := e.store.Player(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		players = append(players, p)
	}
	return players, unknown
}

func (e *Engine) finish(ctx context.Context, summary *RunSummary) {
	summary.FinishedAt = e.opts.Now().UTC()
	for i := range summary.Players {
		res := &summary.Players[i]
		summary.NewMatches += res.NewMatches
		if res.Err != nil {
			res.Error = res.Err.Error()
			summary.Failures++
			e.metrics.IncPlayerFailures(string(summary.Kind))
		}
	}

	e.store.MarkUpdated(summary.FinishedAt)
	if err := e.store.Persist(ctx); err != nil {
		log.Error("Failed to persist at end of run", "run_id", summary.RunID, "error", err)
	}

	e.metrics.AddMatchesIngested(string(summary.Kind), summary.NewMatches)
	e.metrics.ObserveRunDuration(string(summary.Kind), summary.Duration().Seconds())
	e.metrics.SetCachedMatches(e.store.MatchCount())

	event := pubsub.MatchesIngestedEvent{
		RunID:      summary.RunID,
		Kind:       string(summary.Kind),
		NewMatches: summary.NewMatches,
		MatchIDs:   summary.newMatchIDs,
		Failures:   summary.Failures,
		Cancelled:  summary.Cancelled,
		FinishedAt: summary.FinishedAt,
	}
	if err := e.pubsub.SendMessage(ctx, pubsub.EventMatchesIngested, event); err != nil {
		log.Warn("Failed to publish ingestion event", "run_id", summary.RunID, "error", err)
	}

	log.Info("Ingestion run finished", "run_id", summary.RunID, "kind", summary.Kind,
		"players", len(summary.Players), "new_matches", summary.NewMatches,
		"failures", summary.Failures, "cancelled", summary.Cancelled, "duration", summary.Duration())
}

// withThrottleRetry repeats fn while upstream answers 429, telling the limiter
// to back off each time. Other errors and results are returned as is.
func withThrottleRetry[T any](ctx context.Context, e *Engine, fn func() (T, error)) (T, error) {
	for attempt := 1; ; attempt++ {
		v, err := fn()
		var rl *riot.RateLimitedError
		if !errors.As(err, &rl) {
			return v, err
		}
		e.metrics.IncThrottled()
		e.limiter.OnThrottled(rl.RetryAfter)
		if attempt >= e.opts.MaxThrottleRetries {
			return v, fmt.Errorf("still throttled after %d attempts: %w", attempt, err)
		}
		if err := ctx.Err(); err != nil {
			return v, err
		}
		log.Debug("Retrying throttled call", "attempt", attempt, "retry_after", rl.RetryAfter)
	}
}

// matchFor returns the cached match or fetches and normalizes it.
func (e *Engine) matchFor(ctx context.Context, matchID string) (cache.MatchRecord, bool, error) {
	if m, ok := e.store.GetMatch(matchID); ok {
		return m, true, nil
	}
	m, err := withThrottleRetry(ctx, e, func() (cache.MatchRecord, error) {
		return e.client.FetchMatchDetail(ctx, matchID)
	})
	return m, false, err
}

func (e *Engine) storeMatch(m cache.MatchRecord, res *PlayerResult, summary *RunSummary) error {
	inserted, err := e.store.StoreMatch(m)
	if err != nil {
		return err
	}
	if inserted {
		res.NewMatches++
		summary.newMatchIDs = append(summary.newMatchIDs, m.MatchID)
	}
	return nil
}
