package notifier

import (
	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/tracker"
)

// Notifier defines a high-level interface for rendering tracker results and
// sending notifications about ingestion runs.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For finished or rejected ingestion runs
	SendRunSummary(summary *ingest.RunSummary, dryRun bool) error
	SendRunFailed(kind ingest.Kind, cause error, dryRun bool) error

	// For formatting responses for slash commands
	FormatPlayersResponse(players []tracker.PlayerSummary) (any, error)
	FormatPlayerAddedResponse(result *tracker.AddPlayerResult) (any, error)
	FormatDailyRecordsResponse(report *analytics.DailyReport) (any, error)
	FormatTopDuosResponse(report *analytics.DuoReport) (any, error)
	FormatTopFlexStacksResponse(report *analytics.FlexReport) (any, error)
	FormatPlayerProfileResponse(profile *analytics.PlayerProfile) (any, error)
	FormatUpdateAcceptedResponse(kind ingest.Kind) (any, error)
	FormatErrorResponse(text string) (any, error)
}

// ReportRun posts the outcome of an ingestion run: the summary when one was
// produced, otherwise the error that prevented it.
func ReportRun(n Notifier, kind ingest.Kind, summary *ingest.RunSummary, runErr error, dryRun bool) error {
	if summary != nil {
		return n.SendRunSummary(summary, dryRun)
	}
	if runErr != nil {
		return n.SendRunFailed(kind, runErr, dryRun)
	}
	return nil
}
