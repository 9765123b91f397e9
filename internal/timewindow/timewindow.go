package timewindow

import (
	"fmt"
	"time"
)

// New creates a Calculator for the given location. seasonDate is the calendar date
// (only year, month and day are used) on which the season starts; the season instant
// itself is 03:00 local on that date.
func New(loc *time.Location, seasonDate time.Time) Calculator {
	loc = orUTC(loc)
	return Calculator{
		loc:         loc,
		seasonStart: SeasonStartFor(seasonDate, loc),
	}
}

// SeasonStartFor applies the day-boundary rule to a calendar date. A nil loc means UTC.
func SeasonStartFor(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, DayBoundaryHour, 0, 0, 0, orUTC(loc))
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// ParseDayKey validates a "YYYY-MM-DD" string.
func ParseDayKey(s string) (DayKey, error) {
	if _, err := time.Parse(dayKeyLayout, s); err != nil {
		return "", fmt.Errorf("%w %q, expected YYYY-MM-DD: %w", ErrInvalidDay, s, err)
	}
	return DayKey(s), nil
}

// TrackingDay returns the bucket ts belongs to in loc. Anything before 03:00 local
// belongs to the previous calendar day; 03:00:00 exactly starts a new day.
// A nil loc means UTC.
func TrackingDay(ts time.Time, loc *time.Location) DayKey {
	loc = orUTC(loc)
	local := ts.In(loc)
	y, m, d := local.Date()
	if local.Hour() < DayBoundaryHour {
		// Noon avoids DST edge cases when stepping back a calendar day.
		y, m, d = time.Date(y, m, d-1, 12, 0, 0, 0, loc).Date()
	}
	return DayKey(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(dayKeyLayout))
}

func (c Calculator) Location() *time.Location { return orUTC(c.loc) }

func (c Calculator) SeasonStart() time.Time { return c.seasonStart }

func (c Calculator) TrackingDay(ts time.Time) DayKey {
	return TrackingDay(ts, c.loc)
}

// CurrentDay is the tracking day containing now.
func (c Calculator) CurrentDay(now time.Time) DayKey {
	return TrackingDay(now, c.loc)
}

// DayBounds returns the half-open interval [start, end) covered by day.
func (c Calculator) DayBounds(day DayKey) (time.Time, time.Time, error) {
	date, err := time.Parse(dayKeyLayout, string(day))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w %q: %w", ErrInvalidDay, day, err)
	}
	y, m, d := date.Date()
	loc := c.Location()
	start := time.Date(y, m, d, DayBoundaryHour, 0, 0, 0, loc)
	end := time.Date(y, m, d+1, DayBoundaryHour, 0, 0, 0, loc)
	return start, end, nil
}

// IsWithinSeason reports whether ts is at or after the season start.
func (c Calculator) IsWithinSeason(ts time.Time) bool {
	return !ts.Before(c.seasonStart)
}
