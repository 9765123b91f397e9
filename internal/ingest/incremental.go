package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/riot"
)

// incrementalPlayer pages through the player's newest matches until it meets
// a match at or before the incremental cursor, a pre-season match, or the end
// of the history. The cursor only advances when pagination finished cleanly.
// Matches whose detail is gone upstream are skipped.
func (e *Engine) incrementalPlayer(ctx context.Context, p cache.PlayerRecord, res *PlayerResult, summary *RunSummary) error {
	cursor := p.LastIncrementalCursor
	newest := cursor
	size := e.opts.IncrementalPageSize

	for start := 0; ; start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		page := riot.PageRequest{Start: start, Count: size, StartTime: e.calendar.SeasonStart()}
		ids, err := withThrottleRetry(ctx, e, func() ([]string, error) {
			return e.client.FetchMatchIDsPage(ctx, p.PUUID, page)
		})
		if err != nil {
			return fmt.Errorf("fetch match ids at %d: %w", start, err)
		}
		res.Pages++

		done := len(ids) < size
		for _, id := range ids {
			m, cached, err := e.matchFor(ctx, id)
			if errors.Is(err, riot.ErrNotFound) {
				res.skipMissing(p.RiotID, id)
				continue
			}
			if err != nil {
				return fmt.Errorf("fetch match %s: %w", id, err)
			}
			if !cursor.IsZero() && !m.Timestamp.After(cursor) {
				done = true
				break
			}
			if !e.calendar.IsWithinSeason(m.Timestamp) {
				done = true
				break
			}
			if !cached {
				if err := e.storeMatch(m, res, summary); err != nil {
					return err
				}
			}
			if m.Timestamp.After(newest) {
				newest = m.Timestamp
			}
		}
		if done {
			break
		}
	}

	if newest.After(cursor) {
		if err := e.store.UpdateCursor(p.PUUID, cache.CursorUpdate{Incremental: &newest}); err != nil {
			return fatalError{err}
		}
	}
	log.Info("Incremental update finished for player", "riot_id", p.RiotID, "new_matches", res.NewMatches, "pages", res.Pages, "cursor", newest)
	return nil
}
