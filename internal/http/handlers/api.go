package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/ratelimit"
	"github.com/mauv0809/league-ledger/internal/tracker"
)

// StatsProvider exposes the limiter's current windows.
type StatsProvider interface {
	Stats() ratelimit.Stats
}

func ListPlayersHandler(t tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players := t.ListPlayers()
		if players == nil {
			players = []tracker.PlayerSummary{}
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func AddPlayerHandler(t tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		riotID := r.URL.Query().Get("riot_id")
		if riotID == "" {
			http.Error(w, "riot_id is required", http.StatusBadRequest)
			return
		}
		log.Info("Received add player request", "riot_id", riotID)
		res, err := t.AddPlayer(r.Context(), riotID)
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, res)
	}
}

// UpdateHandler runs an ingestion of the given kind for the players named by
// repeated riot_id parameters, or for everyone. The request blocks until the
// run finishes; disconnecting cancels it after the current player is saved.
func UpdateHandler(t tracker.Tracker, kind ingest.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		riotIDs := r.URL.Query()["riot_id"]
		log.Info("Received update request", "kind", kind, "players", riotIDs)

		var summary *ingest.RunSummary
		var err error
		switch kind {
		case ingest.KindBackfill:
			summary, err = t.SeasonBackfill(r.Context(), riotIDs...)
		default:
			summary, err = t.IncrementalUpdate(r.Context(), riotIDs...)
		}
		if err != nil && summary == nil {
			writeError(w, err)
			return
		}
		if err != nil {
			// The run aborted part way; report what was done alongside the cause.
			writeJSON(w, StatusFor(err), struct {
				*ingest.RunSummary
				Error string `json:"error"`
			}{summary, err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func DailyRecordsHandler(t tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := t.DailyRecords(r.URL.Query().Get("day"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func TopDuosHandler(t tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minGames, err := parseMinGames(r.URL.Query().Get("min_games"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, t.TopDuos(minGames))
	}
}

func TopFlexStacksHandler(t tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, t.TopFlexStacks())
	}
}

func QueueCountsHandler(t tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		riotID := r.URL.Query().Get("riot_id")
		if riotID == "" {
			http.Error(w, "riot_id is required", http.StatusBadRequest)
			return
		}
		counts, err := t.QueueCounts(riotID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

func PoolQueueCountsHandler(t tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, t.PoolQueueCounts())
	}
}

// PlayerProfileHandler serves recent form. "recent" and "champ_games" size
// the two match windows.
func PlayerProfileHandler(t tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		riotID := q.Get("riot_id")
		if riotID == "" {
			http.Error(w, "riot_id is required", http.StatusBadRequest)
			return
		}
		recent, err := parsePositive("recent", q.Get("recent"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		champGames, err := parsePositive("champ_games", q.Get("champ_games"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		profile, err := t.PlayerProfile(riotID, recent, champGames)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func RateLimitHandler(limiter StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, limiter.Stats())
	}
}

// parseMinGames reads an optional positive game threshold; empty means default.
func parseMinGames(raw string) (int, error) {
	return parsePositive("min_games", raw)
}

func parsePositive(param, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", param, raw)
	}
	return n, nil
}
