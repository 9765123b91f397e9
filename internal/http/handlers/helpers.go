package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/riot"
	"github.com/mauv0809/league-ledger/internal/timewindow"
)

// ContextKey is a custom type to avoid key collisions in context.
type ContextKey string

const (
	DryRunKey ContextKey = "dryRun"
)

// IsDryRunFromContext is a helper to safely retrieve the dry_run flag from the request context.
func IsDryRunFromContext(r *http.Request) bool {
	dryRun, ok := r.Context().Value(DryRunKey).(bool)
	return ok && dryRun
}

// Jobs runs work that outlives the request that started it.
type Jobs struct {
	ctx context.Context
	wg  sync.WaitGroup
}

// NewJobs creates a Jobs whose work is cancelled with ctx.
func NewJobs(ctx context.Context) *Jobs {
	return &Jobs{ctx: ctx}
}

// Go runs fn in the background.
func (j *Jobs) Go(fn func(ctx context.Context)) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		fn(j.ctx)
	}()
}

// Wait blocks until all background work has returned.
func (j *Jobs) Wait() {
	j.wg.Wait()
}

// StatusFor maps a tracker error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrUpdateInProgress):
		return http.StatusConflict
	case errors.Is(err, riot.ErrInvalidRiotID), errors.Is(err, timewindow.ErrInvalidDay):
		return http.StatusBadRequest
	case errors.Is(err, cache.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, cache.ErrCorruptStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	} else {
		log.Warn("Request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
