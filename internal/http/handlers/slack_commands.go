package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/notifier"
	"github.com/mauv0809/league-ledger/internal/riot"
	"github.com/mauv0809/league-ledger/internal/tracker"
	"github.com/slack-go/slack"
)

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// respond writes a formatted notifier response, or a 500 when formatting failed.
func respond(w http.ResponseWriter, msg any, err error) {
	if err != nil {
		http.Error(w, "Failed to format response", http.StatusInternalServerError)
		log.Error("Failed to format slack response", "error", err)
		return
	}
	slackMsg, ok := msg.(slack.Message)
	if !ok {
		http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
		log.Error("Failed to cast message to slack.Message")
		return
	}
	respondWithSlackMsg(w, slackMsg)
}

// respondError tells the user in Slack what went wrong. Slack only shows
// bodies of 200 responses, so the status is always 200.
func respondError(w http.ResponseWriter, n notifier.Notifier, err error) {
	var text string
	switch {
	case errors.Is(err, riot.ErrInvalidRiotID):
		text = "Use the format Name#TAG."
	case errors.Is(err, cache.ErrPlayerNotFound):
		text = "Player not found."
	case errors.Is(err, cache.ErrCorruptStore):
		text = "The match cache could not be loaded. Updates are disabled until it is repaired."
	default:
		text = "Something went wrong: " + err.Error()
	}
	msg, ferr := n.FormatErrorResponse(text)
	respond(w, msg, ferr)
}

func parseCommand(w http.ResponseWriter, r *http.Request) (slack.SlashCommand, bool) {
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return slack.SlashCommand{}, false
	}
	log.Info("Received slash command", "command", cmd.Command, "user", cmd.UserName, "text", cmd.Text)
	return cmd, true
}

func AddPlayerCommandHandler(t tracker.Tracker, n notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, ok := parseCommand(w, r)
		if !ok {
			return
		}
		riotID := strings.TrimSpace(cmd.Text)
		if riotID == "" {
			http.Error(w, "Riot ID is required.", http.StatusBadRequest)
			return
		}
		res, err := t.AddPlayer(r.Context(), riotID)
		if err != nil {
			respondError(w, n, err)
			return
		}
		msg, err := n.FormatPlayerAddedResponse(res)
		respond(w, msg, err)
	}
}

func PlayersCommandHandler(t tracker.Tracker, n notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := parseCommand(w, r); !ok {
			return
		}
		msg, err := n.FormatPlayersResponse(t.ListPlayers())
		respond(w, msg, err)
	}
}

func DailyRecordsCommandHandler(t tracker.Tracker, n notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, ok := parseCommand(w, r)
		if !ok {
			return
		}
		report, err := t.DailyRecords(strings.TrimSpace(cmd.Text))
		if err != nil {
			respondError(w, n, err)
			return
		}
		msg, err := n.FormatDailyRecordsResponse(report)
		respond(w, msg, err)
	}
}

func TopDuosCommandHandler(t tracker.Tracker, n notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, ok := parseCommand(w, r)
		if !ok {
			return
		}
		minGames, err := parseMinGames(strings.TrimSpace(cmd.Text))
		if err != nil {
			respondError(w, n, err)
			return
		}
		msg, err := n.FormatTopDuosResponse(t.TopDuos(minGames))
		respond(w, msg, err)
	}
}

func PlayerProfileCommandHandler(t tracker.Tracker, n notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, ok := parseCommand(w, r)
		if !ok {
			return
		}
		riotID := strings.TrimSpace(cmd.Text)
		if riotID == "" {
			http.Error(w, "Riot ID is required.", http.StatusBadRequest)
			return
		}
		profile, err := t.PlayerProfile(riotID, 0, 0)
		if err != nil {
			respondError(w, n, err)
			return
		}
		msg, err := n.FormatPlayerProfileResponse(profile)
		respond(w, msg, err)
	}
}

func TopFlexStacksCommandHandler(t tracker.Tracker, n notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := parseCommand(w, r); !ok {
			return
		}
		msg, err := n.FormatTopFlexStacksResponse(t.TopFlexStacks())
		respond(w, msg, err)
	}
}

// UpdateCommandHandler acknowledges at once and posts the run summary to the
// channel when the run finishes.
func UpdateCommandHandler(t tracker.Tracker, n notifier.Notifier, jobs *Jobs, kind ingest.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := parseCommand(w, r); !ok {
			return
		}
		dryRun := IsDryRunFromContext(r)
		jobs.Go(func(ctx context.Context) {
			var summary *ingest.RunSummary
			var err error
			if kind == ingest.KindBackfill {
				summary, err = t.SeasonBackfill(ctx)
			} else {
				summary, err = t.IncrementalUpdate(ctx)
			}
			if err != nil {
				log.Error("Slash command update failed", "kind", kind, "error", err)
			}
			if nerr := notifier.ReportRun(n, kind, summary, err, dryRun); nerr != nil {
				log.Error("Failed to post update result", "kind", kind, "error", nerr)
			}
		})
		msg, err := n.FormatUpdateAcceptedResponse(kind)
		respond(w, msg, err)
	}
}
