package timewindow

import (
	"errors"
	"time"
)

// ErrInvalidDay is returned for day keys that are not YYYY-MM-DD dates.
var ErrInvalidDay = errors.New("invalid day")

// DayKey identifies a tracking day by the calendar date on which it starts, formatted "2006-01-02".
type DayKey string

const (
	dayKeyLayout = "2006-01-02"
	// DayBoundaryHour is the local wall-clock hour at which a tracking day starts.
	DayBoundaryHour = 3
)

// Calculator buckets timestamps into tracking days and season membership.
// It is a plain value and safe to share between goroutines. The zero value
// buckets in UTC and counts every timestamp as in season.
type Calculator struct {
	loc         *time.Location
	seasonStart time.Time
}
