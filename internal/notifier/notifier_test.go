package notifier

import (
	"errors"
	"testing"

	"github.com/mauv0809/league-ledger/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRun(t *testing.T) {
	t.Run("summary wins over error", func(t *testing.T) {
		m := NewMock()
		summary := &ingest.RunSummary{RunID: "r1"}
		require.NoError(t, ReportRun(m, ingest.KindBackfill, summary, errors.New("aborted"), false))
		assert.Equal(t, []*ingest.RunSummary{summary}, m.RunSummaries())
		assert.Equal(t, 0, m.RunFailures())
	})

	t.Run("rejected run", func(t *testing.T) {
		m := NewMock()
		require.NoError(t, ReportRun(m, ingest.KindIncremental, nil, ingest.ErrUpdateInProgress, false))
		assert.Empty(t, m.RunSummaries())
		require.Equal(t, 1, m.RunFailures())
		assert.ErrorIs(t, m.SendRunFailedCalls[0].Cause, ingest.ErrUpdateInProgress)
	})
}
