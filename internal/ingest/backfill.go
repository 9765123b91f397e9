package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/riot"
)

// backfillPlayer walks the player's history backwards from the backfill
// cursor (or from now) until the first pre-season match or the end of the
// history. The cursor is committed and the store persisted after every page,
// so an interrupted backfill resumes where it stopped.
func (e *Engine) backfillPlayer(ctx context.Context, p cache.PlayerRecord, res *PlayerResult, summary *RunSummary) error {
	cur := p.SeasonBackfillCursor
	if cur.Complete {
		res.Skipped = true
		res.Complete = true
		return nil
	}

	oldest := cur.Oldest
	size := e.opts.BackfillPageSize
	persistCtx := context.WithoutCancel(ctx)

	for start := 0; ; start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Offsets are relative to the cursor the run started from.
		page := riot.PageRequest{Start: start, Count: size, EndTime: p.SeasonBackfillCursor.Oldest}
		ids, err := withThrottleRetry(ctx, e, func() ([]string, error) {
			return e.client.FetchMatchIDsPage(ctx, p.PUUID, page)
		})
		if err != nil {
			return fmt.Errorf("fetch match ids at %d: %w", start, err)
		}
		res.Pages++

		complete := len(ids) < size
		var pageErr error
		for _, id := range ids {
			m, cached, err := e.matchFor(ctx, id)
			if errors.Is(err, riot.ErrNotFound) {
				res.skipMissing(p.RiotID, id)
				continue
			}
			if err != nil {
				pageErr = fmt.Errorf("fetch match %s: %w", id, err)
				break
			}
			if !e.calendar.IsWithinSeason(m.Timestamp) {
				complete = true
				break
			}
			if !cached {
				if err := e.storeMatch(m, res, summary); err != nil {
					pageErr = err
					break
				}
			}
			if oldest.IsZero() || m.Timestamp.Before(oldest) {
				oldest = m.Timestamp
			}
		}
		if pageErr != nil {
			complete = false
		}

		next := cache.BackfillCursor{Oldest: oldest, Complete: complete}
		if next.Complete != cur.Complete || !next.Oldest.Equal(cur.Oldest) {
			if err := e.store.UpdateCursor(p.PUUID, cache.CursorUpdate{Backfill: &next}); err != nil {
				return fatalError{err}
			}
			cur = next
		}
		if pageErr != nil {
			return pageErr
		}
		if err := e.store.Persist(persistCtx); err != nil {
			return fmt.Errorf("persist backfill page: %w", err)
		}
		log.Debug("Backfill page stored", "riot_id", p.RiotID, "start", start, "ids", len(ids), "oldest", oldest)

		if complete {
			res.Complete = true
			log.Info("Season backfill complete for player", "riot_id", p.RiotID, "new_matches", res.NewMatches, "pages", res.Pages)
			return nil
		}
	}
}
