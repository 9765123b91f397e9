package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/mauv0809/league-ledger/internal/notifier"
	"github.com/mauv0809/league-ledger/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(tracker.NewMock(), notifier.NewMock(), time.UTC, "every so often")
	assert.Error(t, err)
}

func TestNew_Disabled(t *testing.T) {
	tr := tracker.NewMock()
	s, err := New(tr, notifier.NewMock(), time.UTC, "")
	require.NoError(t, err)
	s.Start()
	s.Stop(context.Background())
	assert.Equal(t, 0, tr.IncrementalUpdates())
}

func TestRunIncremental(t *testing.T) {
	testCases := []struct {
		name          string
		summary       *ingest.RunSummary
		err           error
		wantSummaries int
		wantFailures  int
	}{
		{name: "posts summary", summary: &ingest.RunSummary{RunID: "r1"}, wantSummaries: 1},
		{name: "skips when busy", err: ingest.ErrUpdateInProgress},
		{name: "reports refusal", err: errors.New("refusing to ingest"), wantFailures: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := tracker.NewMock()
			tr.IncrementalUpdateFunc = func(ctx context.Context, riotIDs ...string) (*ingest.RunSummary, error) {
				assert.Empty(t, riotIDs, "scheduled updates cover every player")
				return tc.summary, tc.err
			}
			n := notifier.NewMock()
			s, err := New(tr, n, time.UTC, "@hourly")
			require.NoError(t, err)

			s.runIncremental()
			assert.Equal(t, 1, tr.IncrementalUpdates())
			assert.Len(t, n.RunSummaries(), tc.wantSummaries)
			assert.Equal(t, tc.wantFailures, n.RunFailures())
		})
	}
}

func TestStop_CancelsRunningUpdate(t *testing.T) {
	tr := tracker.NewMock()
	s, err := New(tr, notifier.NewMock(), time.UTC, "@hourly")
	require.NoError(t, err)

	s.Stop(context.Background())
	assert.Error(t, s.ctx.Err(), "updates started after Stop see a cancelled context")
}
