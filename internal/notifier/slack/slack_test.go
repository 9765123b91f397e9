package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/league-ledger/internal/analytics"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/metrics"
	"github.com/mauv0809/league-ledger/internal/tracker"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	_, _, err := notifier.sendMessage(slackapi.NewBlockMessage(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.SlackNotifSent())
}

func TestSendMessage_NotConfigured(t *testing.T) {
	notifier := NewNotifier("", "", metrics.NewMock())
	_, _, err := notifier.sendMessage(slackapi.NewBlockMessage(), false)
	assert.Error(t, err)
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.SendRunSummary(&ingest.RunSummary{RunID: "run-1", Kind: ingest.KindIncremental}, false)
	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.SendRunFailed(ingest.KindBackfill, errors.New("boom"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 1, metrics.SlackNotifFailed())
}

func sectionText(t *testing.T, block slackapi.Block) string {
	t.Helper()
	section, ok := block.(*slackapi.SectionBlock)
	require.True(t, ok, "expected a SectionBlock, got %T", block)
	return section.Text.Text
}

func TestFormatRunSummary(t *testing.T) {
	start := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	summary := &ingest.RunSummary{
		RunID:      "run-1",
		Kind:       ingest.KindIncremental,
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		NewMatches: 7,
		Failures:   1,
		Players: []ingest.PlayerResult{
			{RiotID: "Alice#NA1", NewMatches: 7},
			{RiotID: "Bob#NA1", Error: "upstream returned 500"},
		},
	}
	client := &Notifier{channelID: "C123"}
	msg := client.formatRunSummary(summary)
	require.Len(t, msg.Blocks.BlockSet, 4)

	h, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "✅ Update complete", h.Text.Text)
	assert.Equal(t, "New matches: 7\nPlayers: 2\nErrors: 1\nDuration: 1m30s", sectionText(t, msg.Blocks.BlockSet[1]))
	assert.Equal(t, "Failed players:\n• Bob#NA1: upstream returned 500", sectionText(t, msg.Blocks.BlockSet[2]))
}

func TestFormatRunFailed_InProgress(t *testing.T) {
	client := &Notifier{}
	msg := client.formatRunFailed(ingest.KindIncremental, ingest.ErrUpdateInProgress)
	require.Len(t, msg.Blocks.BlockSet, 2)
	assert.Contains(t, sectionText(t, msg.Blocks.BlockSet[1]), "already running")
}

func TestFormatPlayers(t *testing.T) {
	client := &Notifier{}

	t.Run("empty roster", func(t *testing.T) {
		msg := client.formatPlayers(nil)
		require.Len(t, msg.Blocks.BlockSet, 2)
		assert.Contains(t, sectionText(t, msg.Blocks.BlockSet[1]), "No players tracked yet")
	})

	t.Run("lists players", func(t *testing.T) {
		msg := client.formatPlayers([]tracker.PlayerSummary{
			{RiotID: "Alice#NA1", Matches: 12, BackfillComplete: true},
			{RiotID: "Bob#NA1", Matches: 0},
		})
		require.Len(t, msg.Blocks.BlockSet, 2)
		assert.Equal(t, "• Alice#NA1 (12 matches, season complete)\n• Bob#NA1 (0 matches, backfill pending)",
			sectionText(t, msg.Blocks.BlockSet[1]))
	})
}

func TestFormatDailyRecords(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	row := func(name string, solo analytics.WinLoss) analytics.PlayerDay {
		return analytics.PlayerDay{RiotID: name, Queues: []analytics.QueueRecord{
			{Queue: cache.QueueSoloDuo, WinLoss: solo},
			{Queue: cache.QueueFlex},
			{Queue: cache.QueueARAM},
		}}
	}
	report := &analytics.DailyReport{
		Day:     "2026-02-10",
		Start:   time.Date(2026, 2, 10, 3, 0, 0, 0, loc),
		End:     time.Date(2026, 2, 11, 3, 0, 0, 0, loc),
		Players: []analytics.PlayerDay{row("Alice#NA1", analytics.WinLoss{Games: 2, Wins: 2, KDA: 3.5})},
		Total:   row(analytics.TotalRowID, analytics.WinLoss{Games: 2, Wins: 2, KDA: 3.5}),
	}
	report.Total.Total.Games = 2

	msg := (&Notifier{}).formatDailyRecords(report)
	require.Len(t, msg.Blocks.BlockSet, 2)

	h, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "Daily Records (Feb 10 03:00AM → Feb 11 03:00AM)", h.Text.Text)

	table := sectionText(t, msg.Blocks.BlockSet[1])
	assert.Contains(t, table, "Player             | Solo/Duo    | Flex        | ARAM       ")
	assert.Contains(t, table, "Alice#NA1          | 2-0   3.50  | 0-0   0.00  | 0-0   0.00 ")
	assert.Contains(t, table, "TOTAL")
}

func TestFormatTopDuos(t *testing.T) {
	client := &Notifier{}

	t.Run("relaxed threshold is noted", func(t *testing.T) {
		msg := client.formatTopDuos(&analytics.DuoReport{
			RequestedMinGames: 3,
			AppliedMinGames:   1,
			Relaxed:           true,
			Duos:              []analytics.DuoStats{{Players: [2]string{"A#NA1", "B#NA1"}, Games: 1, Wins: 1, WinRate: 100}},
		})
		require.Len(t, msg.Blocks.BlockSet, 3)
		assert.Equal(t, "1) A#NA1 + B#NA1  1-0 (100.0%) [1g]", sectionText(t, msg.Blocks.BlockSet[1]))
		_, ok := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
		assert.True(t, ok)
	})

	t.Run("no duos", func(t *testing.T) {
		msg := client.formatTopDuos(&analytics.DuoReport{RequestedMinGames: 3, AppliedMinGames: 1})
		require.Len(t, msg.Blocks.BlockSet, 2)
		assert.Equal(t, "No duos found this season.", sectionText(t, msg.Blocks.BlockSet[1]))
	})
}

func TestFormatTopFlexStacks(t *testing.T) {
	msg := (&Notifier{}).formatTopFlexStacks(&analytics.FlexReport{
		DistinctStacks: 1,
		MinGames:       3,
		Stacks: []analytics.StackStats{{
			Players: []string{"A#NA1", "B#NA1", "C#NA1", "D#NA1", "E#NA1"},
			Games:   2, Wins: 1, Losses: 1, WinRate: 50,
		}},
	})
	require.Len(t, msg.Blocks.BlockSet, 3)
	assert.Equal(t, "Unique stack combinations: 1", sectionText(t, msg.Blocks.BlockSet[1]))
	assert.Equal(t, "1) A#NA1, B#NA1, C#NA1, D#NA1, E#NA1  1-1 (50.0%) [2g]", sectionText(t, msg.Blocks.BlockSet[2]))
}

func TestFormatPlayerProfile(t *testing.T) {
	client := &Notifier{}
	profile := &analytics.PlayerProfile{
		RiotID:        "Alice#NA1",
		CachedMatches: 4,
		RecentWindow:  8,
		Recent:        analytics.WinLoss{Games: 3, Wins: 2, Losses: 1, Kills: 16, Deaths: 11, Assists: 27, KDA: 43.0 / 11.0},
		SoloDuoGames:  2,
		Champions: []analytics.ChampionRecord{
			{ChampionID: 157, Champion: "Yasuo", Games: 2, Wins: 1, Losses: 1, WinRate: 50},
		},
	}

	msg := client.formatPlayerProfile(profile)
	require.Len(t, msg.Blocks.BlockSet, 3)
	assert.Equal(t, "Recent KDA (last 3): 3.91 (16/11/27)\nRecord: 2-1\nCached matches: 4", sectionText(t, msg.Blocks.BlockSet[1]))
	assert.Equal(t, "*Top Solo/Duo Champs (last 2 games)*\n1) Yasuo  1-1 (50.0%) [2g]", sectionText(t, msg.Blocks.BlockSet[2]))

	t.Run("no solo games", func(t *testing.T) {
		msg := client.formatPlayerProfile(&analytics.PlayerProfile{RiotID: "Bob#NA1", Champions: []analytics.ChampionRecord{}})
		require.Len(t, msg.Blocks.BlockSet, 3)
		assert.Equal(t, "*Top Solo/Duo Champs (last 0 games)*\nNo Solo/Duo games cached.", sectionText(t, msg.Blocks.BlockSet[2]))
	})
}
