package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/tracker"
)

// HealthCheckHandler reports the cache status. An untrusted cache answers 503.
func HealthCheckHandler(t tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		status := t.Status()
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	}
}
