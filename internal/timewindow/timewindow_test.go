package timewindow

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestTrackingDay(t *testing.T) {
	loc := newYork(t)

	tests := []struct {
		name string
		ts   time.Time
		want DayKey
	}{
		{"exactly at boundary starts the new day", time.Date(2026, 1, 23, 3, 0, 0, 0, loc), "2026-01-23"},
		{"one nanosecond before boundary", time.Date(2026, 1, 23, 2, 59, 59, 999999999, loc), "2026-01-22"},
		{"after midnight belongs to previous day", time.Date(2026, 1, 23, 1, 15, 0, 0, loc), "2026-01-22"},
		{"late evening", time.Date(2026, 1, 23, 23, 59, 0, 0, loc), "2026-01-23"},
		{"first of month rolls back across month", time.Date(2026, 3, 1, 0, 30, 0, 0, loc), "2026-02-28"},
		{"utc input is converted to local", time.Date(2026, 1, 23, 7, 30, 0, 0, time.UTC), "2026-01-22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrackingDay(tt.ts, loc))
		})
	}
}

func TestTrackingDay_DSTTransition(t *testing.T) {
	loc := newYork(t)
	// 2026-03-08: clocks jump from 02:00 to 03:00 in New York.
	assert.Equal(t, DayKey("2026-03-07"), TrackingDay(time.Date(2026, 3, 8, 1, 59, 0, 0, loc), loc))
	assert.Equal(t, DayKey("2026-03-08"), TrackingDay(time.Date(2026, 3, 8, 3, 0, 0, 0, loc), loc))
}

func TestDayBounds(t *testing.T) {
	loc := newYork(t)
	calc := New(loc, time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC))

	start, end, err := calc.DayBounds("2026-01-22")
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2026, 1, 22, 3, 0, 0, 0, loc)))
	assert.True(t, end.Equal(time.Date(2026, 1, 23, 3, 0, 0, 0, loc)))
	assert.Equal(t, DayKey("2026-01-22"), calc.TrackingDay(start))
	assert.Equal(t, DayKey("2026-01-22"), calc.TrackingDay(end.Add(-time.Nanosecond)))
	assert.Equal(t, DayKey("2026-01-23"), calc.TrackingDay(end))

	_, _, err = calc.DayBounds("yesterday")
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestIsWithinSeason(t *testing.T) {
	loc := newYork(t)
	calc := New(loc, time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC))

	assert.True(t, calc.SeasonStart().Equal(time.Date(2026, 1, 8, 3, 0, 0, 0, loc)))
	assert.True(t, calc.IsWithinSeason(calc.SeasonStart()))
	assert.True(t, calc.IsWithinSeason(calc.SeasonStart().Add(time.Hour)))
	assert.False(t, calc.IsWithinSeason(calc.SeasonStart().Add(-time.Second)))
}

func TestParseDayKey(t *testing.T) {
	day, err := ParseDayKey("2026-02-14")
	require.NoError(t, err)
	assert.Equal(t, DayKey("2026-02-14"), day)

	_, err = ParseDayKey("14/02/2026")
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestCalculator_ZeroValue(t *testing.T) {
	var c Calculator
	assert.Equal(t, time.UTC, c.Location())
	assert.Equal(t, DayKey("2026-02-09"), c.TrackingDay(time.Date(2026, 2, 10, 2, 59, 0, 0, time.UTC)))
	assert.Equal(t, DayKey("2026-02-10"), c.CurrentDay(time.Date(2026, 2, 10, 3, 0, 0, 0, time.UTC)))
	assert.True(t, c.IsWithinSeason(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))

	start, end, err := c.DayBounds("2026-02-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 10, 3, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	assert.Equal(t, DayKey("2026-02-09"), TrackingDay(time.Date(2026, 2, 10, 1, 0, 0, 0, time.UTC), nil))
}
