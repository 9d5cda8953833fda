package requests

import (
	"fmt"
	"time"
)

// TimeOfDay is minutes from midnight. Requests persist their preferred
// window as two of these.
type TimeOfDay int

// ParseTimeOfDay parses "15:04" into minutes from midnight.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("requests: parse time of day %q: %w", s, err)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// TimeOfDayFrom extracts the time of day from a timestamp.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Window is a half-open [Start, End) time-of-day interval. A nil bound is
// unbounded on that side; the zero Window accepts the whole day.
type Window struct {
	Start *TimeOfDay
	End   *TimeOfDay
}

// Contains reports whether the timestamp's time of day falls inside the
// window. The end bound is exclusive: a slot starting exactly at End is out.
func (w Window) Contains(t time.Time) bool {
	tod := TimeOfDayFrom(t)
	if w.Start != nil && tod < *w.Start {
		return false
	}
	if w.End != nil && tod >= *w.End {
		return false
	}
	return true
}

func (w Window) String() string {
	start, end := "00:00", "24:00"
	if w.Start != nil {
		start = w.Start.String()
	}
	if w.End != nil {
		end = w.End.String()
	}
	return fmt.Sprintf("[%s, %s)", start, end)
}
