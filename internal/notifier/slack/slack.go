package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/metrics"
	"github.com/mauv0809/league-ledger/internal/notifier"
	"github.com/mauv0809/league-ledger/internal/tracker"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier renders tracker results as Block Kit messages and posts run summaries.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	var api slackClient
	if token != "" {
		api = slack.New(token)
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}
	if s.api == nil || s.channelID == "" {
		log.Warn("Slack client or channel ID is not configured. Skipping notification.")
		return "", "", errors.New("slack client or channel ID is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendRunSummary(summary *ingest.RunSummary, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatRunSummary(summary), dryRun)
	return err
}

func (s *Notifier) SendRunFailed(kind ingest.Kind, cause error, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatRunFailed(kind, cause), dryRun)
	return err
}

// FormatPlayersResponse formats the roster for a slash command response.
func (s *Notifier) FormatPlayersResponse(players []tracker.PlayerSummary) (any, error) {
	return s.formatPlayers(players), nil
}

func (s *Notifier) FormatPlayerAddedResponse(result *tracker.AddPlayerResult) (any, error) {
	return s.formatPlayerAdded(result), nil
}

func (s *Notifier) FormatDailyRecordsResponse(report *analytics.DailyReport) (any, error) {
	return s.formatDailyRecords(report), nil
}

func (s *Notifier) FormatTopDuosResponse(report *analytics.DuoReport) (any, error) {
	return s.formatTopDuos(report), nil
}

func (s *Notifier) FormatTopFlexStacksResponse(report *analytics.FlexReport) (any, error) {
	return s.formatTopFlexStacks(report), nil
}

func (s *Notifier) FormatPlayerProfileResponse(profile *analytics.PlayerProfile) (any, error) {
	return s.formatPlayerProfile(profile), nil
}

func (s *Notifier) FormatUpdateAcceptedResponse(kind ingest.Kind) (any, error) {
	text := "⏳ Updating records, results will be posted to the channel."
	if kind == ingest.KindBackfill {
		text = "⏳ Season backfill starting, results will be posted to the channel."
	}
	return slack.NewBlockMessage(plainSection(text)), nil
}

func (s *Notifier) FormatErrorResponse(text string) (any, error) {
	return slack.NewBlockMessage(plainSection("⚠️ " + text)), nil
}

func plainSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil)
}

func markdownSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil)
}

func header(text string) *slack.HeaderBlock {
	return slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", text, true, false))
}

func (s *Notifier) formatRunSummary(summary *ingest.RunSummary) slack.Message {
	blocks := make([]slack.Block, 0)

	title := "✅ Update complete"
	if summary.Kind == ingest.KindBackfill {
		title = "✅ Season backfill complete"
	}
	if summary.Cancelled {
		title = "⏹️ Update cancelled"
	}
	blocks = append(blocks, header(title))

	detailsText := fmt.Sprintf("New matches: %d\nPlayers: %d\nErrors: %d\nDuration: %s",
		summary.NewMatches, len(summary.Players), summary.Failures, summary.Duration().Round(time.Second))
	blocks = append(blocks, plainSection(detailsText))

	var failed []string
	for _, p := range summary.Players {
		if p.Error != "" {
			failed = append(failed, fmt.Sprintf("• %s: %s", p.RiotID, p.Error))
		}
	}
	if len(failed) > 0 {
		blocks = append(blocks, plainSection("Failed players:\n"+strings.Join(failed, "\n")))
	}

	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Run "+summary.RunID, false, false)))
	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatRunFailed(kind ingest.Kind, cause error) slack.Message {
	text := fmt.Sprintf("%s update failed: %v", kind, cause)
	if errors.Is(cause, ingest.ErrUpdateInProgress) {
		text = "Another update is already running. Try again when it finishes."
	}
	return slack.NewBlockMessage(header("⚠️ Update not run"), plainSection(text))
}

func (s *Notifier) formatPlayers(players []tracker.PlayerSummary) slack.Message {
	blocks := []slack.Block{header("Player Pool")}
	if len(players) == 0 {
		blocks = append(blocks, plainSection("No players tracked yet. Add one with /addplayer Name#TAG."))
		return slack.NewBlockMessage(blocks...)
	}

	lines := make([]string, 0, len(players))
	for _, p := range players {
		backfill := "backfill pending"
		if p.BackfillComplete {
			backfill = "season complete"
		}
		lines = append(lines, fmt.Sprintf("• %s (%d matches, %s)", p.RiotID, p.Matches, backfill))
	}
	blocks = append(blocks, plainSection(strings.Join(lines, "\n")))
	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatPlayerAdded(result *tracker.AddPlayerResult) slack.Message {
	text := fmt.Sprintf("✅ Added: %s", result.Player.RiotID)
	if !result.Created {
		text = fmt.Sprintf("%s is already tracked.", result.Player.RiotID)
	}
	return slack.NewBlockMessage(plainSection(text))
}

// Column widths of the daily table.
const (
	nameWidth = 18
	wlWidth   = 5
	kdaWidth  = 5
)

var dailyQueues = []cache.QueueType{cache.QueueSoloDuo, cache.QueueFlex, cache.QueueARAM}

func pad(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		return string(r[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-len(r))
}

func dailyRow(name string, queues []analytics.QueueRecord) string {
	cols := []string{pad(name, nameWidth)}
	for _, q := range dailyQueues {
		var rec analytics.QueueRecord
		for _, got := range queues {
			if got.Queue == q {
				rec = got
			}
		}
		cols = append(cols, pad(fmt.Sprintf("%d-%d", rec.Wins, rec.Losses), wlWidth)+" "+pad(fmt.Sprintf("%.2f", rec.KDA), kdaWidth))
	}
	return strings.Join(cols, " | ")
}

func (s *Notifier) formatDailyRecords(report *analytics.DailyReport) slack.Message {
	title := fmt.Sprintf("Daily Records (%s → %s)", report.Start.Format("Jan 02 03:04PM"), report.End.Format("Jan 02 03:04PM"))
	blocks := []slack.Block{header(title)}

	cols := []string{pad("Player", nameWidth)}
	for _, q := range dailyQueues {
		cols = append(cols, pad(q.Label(), wlWidth+1+kdaWidth))
	}
	lines := []string{strings.Join(cols, " | ")}
	for _, p := range report.Players {
		lines = append(lines, dailyRow(p.RiotID, p.Queues))
	}
	lines = append(lines, dailyRow(report.Total.RiotID, report.Total.Queues))
	blocks = append(blocks, markdownSection("```\n"+strings.Join(lines, "\n")+"\n```"))

	if report.Total.Total.Games == 0 {
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "No games played in this window.", false, false)))
	}
	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatTopDuos(report *analytics.DuoReport) slack.Message {
	blocks := []slack.Block{header(fmt.Sprintf("Top Solo/Duo Duos (min %d games)", report.AppliedMinGames))}
	if len(report.Duos) == 0 {
		blocks = append(blocks, plainSection("No duos found this season."))
		return slack.NewBlockMessage(blocks...)
	}

	var lines []string
	for i, d := range report.Duos {
		if i == 10 {
			break
		}
		lines = append(lines, fmt.Sprintf("%d) %s + %s  %d-%d (%.1f%%) [%dg]",
			i+1, d.Players[0], d.Players[1], d.Wins, d.Games-d.Wins, d.WinRate, d.Games))
	}
	blocks = append(blocks, plainSection(strings.Join(lines, "\n")))
	if report.Relaxed {
		note := fmt.Sprintf("No duo reached %d games, showing duos with at least %d.", report.RequestedMinGames, report.AppliedMinGames)
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", note, false, false)))
	}
	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatTopFlexStacks(report *analytics.FlexReport) slack.Message {
	blocks := []slack.Block{
		header(fmt.Sprintf("Top %d Flex 5-Stacks", len(report.Stacks))),
		plainSection(fmt.Sprintf("Unique stack combinations: %d", report.DistinctStacks)),
	}
	if len(report.Stacks) == 0 {
		blocks[0] = header("Top Flex 5-Stacks")
		blocks = append(blocks, plainSection("No five-player flex stacks yet this season."))
		return slack.NewBlockMessage(blocks...)
	}

	var lines []string
	for i, st := range report.Stacks {
		lines = append(lines, fmt.Sprintf("%d) %s  %d-%d (%.1f%%) [%dg]",
			i+1, strings.Join(st.Players, ", "), st.Wins, st.Losses, st.WinRate, st.Games))
	}
	blocks = append(blocks, plainSection(strings.Join(lines, "\n")))
	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatPlayerProfile(p *analytics.PlayerProfile) slack.Message {
	r := p.Recent
	recent := fmt.Sprintf("Recent KDA (last %d): %.2f (%d/%d/%d)\nRecord: %d-%d\nCached matches: %d",
		r.Games, r.KDA, r.Kills, r.Deaths, r.Assists, r.Wins, r.Losses, p.CachedMatches)
	blocks := []slack.Block{header(p.RiotID), plainSection(recent)}

	title := fmt.Sprintf("*Top Solo/Duo Champs (last %d games)*", p.SoloDuoGames)
	if len(p.Champions) == 0 {
		blocks = append(blocks, markdownSection(title+"\nNo Solo/Duo games cached."))
		return slack.NewBlockMessage(blocks...)
	}
	lines := []string{title}
	for i, c := range p.Champions {
		lines = append(lines, fmt.Sprintf("%d) %s  %d-%d (%.1f%%) [%dg]", i+1, c.Champion, c.Wins, c.Losses, c.WinRate, c.Games))
	}
	blocks = append(blocks, markdownSection(strings.Join(lines, "\n")))
	return slack.NewBlockMessage(blocks...)
}
