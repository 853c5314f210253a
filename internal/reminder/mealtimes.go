package reminder

import (
	"fmt"

	"github.com/dhollis/peckish/internal/clock"
	"github.com/dhollis/peckish/internal/model"
)

// DaySchedule resolves the local start time ("HH:MM") of every meal type
// for one user-day. Precedence: plan custom times > profile custom times
// > global defaults. The result always covers every meal type.
func DaySchedule(planTimes, profileTimes map[string]string) map[string]string {
	sched := make(map[string]string, len(model.MealTypes))
	for _, mt := range model.MealTypes {
		sched[mt] = model.DefaultMealTimes[mt]
		if t := profileTimes[mt]; t != "" {
			sched[mt] = t
		}
		if t := planTimes[mt]; t != "" {
			sched[mt] = t
		}
	}
	return sched
}

// PlanPosition locates the (week, weekday) slot of a local calendar date
// within a plan that started on startDate. Weekday counts 0-6 from the
// start date. Both arguments are local-midnight-anchored dates, which
// keeps the division exact across DST boundaries.
func PlanPosition(startDate, localDate string) (week, weekday int, err error) {
	days, err := clock.DaysBetween(startDate, localDate)
	if err != nil {
		return 0, 0, err
	}
	if days < 0 {
		return 0, 0, fmt.Errorf("plan starts %s, after %s", startDate, localDate)
	}
	return days / 7, days % 7, nil
}

// parseClock converts "HH:MM" to minutes after local midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return h*60 + m, nil
}
