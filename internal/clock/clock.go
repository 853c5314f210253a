// Package clock resolves UTC instants into user-local wall-clock time.
// All "is it time yet" decisions in the reminder engine work off the
// user's local clock and calendar date, never the server's.
package clock

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimezone is used when a profile carries an unrecognized zone.
// A single bad profile value must not block a whole scheduling pass, so
// this is a fallback, not an error path.
const DefaultTimezone = "America/Sao_Paulo"

const dateLayout = "2006-01-02"

// LocalTime is a resolved wall-clock moment in some user's timezone.
type LocalTime struct {
	Hour   int
	Minute int
	// Date is the local calendar date ("2006-01-02"). Around midnight
	// this differs from the server's date; it is the one that decides
	// which day's events are in play.
	Date string
	Time time.Time
}

// MinuteOfDay returns minutes elapsed since local midnight.
func (lt LocalTime) MinuteOfDay() int {
	return lt.Hour*60 + lt.Minute
}

// Resolve converts a UTC instant into the wall clock of the given IANA
// zone. Unknown or empty zone names fall back to DefaultTimezone with a
// warning.
func Resolve(nowUTC time.Time, tz string) LocalTime {
	local := nowUTC.In(Location(tz))
	return LocalTime{
		Hour:   local.Hour(),
		Minute: local.Minute(),
		Date:   local.Format(dateLayout),
		Time:   local,
	}
}

// Location loads the IANA zone, falling back to DefaultTimezone (and
// finally UTC if the tzdata itself is unavailable).
func Location(tz string) *time.Location {
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err == nil {
			return loc
		}
		slog.Warn("unknown timezone, using default", "timezone", tz, "default", DefaultTimezone)
	}

	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DaysBetween returns the whole days from one local calendar date to
// another. Dates are parsed as midnight-anchored values, so the result is
// stable across DST transitions.
func DaysBetween(from, to string) (int, error) {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", from, err)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", to, err)
	}
	return int(t.Sub(f).Hours() / 24), nil
}
