package reminder

import (
	"github.com/dhollis/peckish/internal/clock"
	"github.com/dhollis/peckish/internal/model"
)

// mealWindowMinutes is the tolerance applied to meal reminder targets.
// A reminder fires when the local clock is at or up to this many minutes
// past the target, which catches late ticks without double-sending ahead
// of time.
const mealWindowMinutes = 5

// MealEvent is one due meal reminder: the uncompleted plan item and the
// local start time it was resolved against.
type MealEvent struct {
	Item     model.MealPlanItem
	MealType string
	StartsAt string // "HH:MM" local
}

// DueMealEvents evaluates the meal due-check for one user at one local
// instant. For each enabled meal type with an uncompleted item today, the
// target is the scheduled start time minus the configured offset; the
// event is due when localNow is within [target, target+window).
func DueMealEvents(local clock.LocalTime, settings model.MealReminderSettings, schedule map[string]string, items []model.MealPlanItem) []MealEvent {
	if !settings.Enabled {
		return nil
	}

	enabled := make(map[string]bool, len(settings.EnabledMealTypes))
	for _, mt := range settings.EnabledMealTypes {
		enabled[mt] = true
	}

	nowMin := local.MinuteOfDay()
	var due []MealEvent
	for _, item := range items {
		if item.Completed || !enabled[item.MealType] {
			continue
		}
		startsAt, ok := schedule[item.MealType]
		if !ok {
			continue
		}
		startMin, err := parseClock(startsAt)
		if err != nil {
			continue
		}

		target := startMin - settings.RemindMinutesBefore
		if d := nowMin - target; d >= 0 && d < mealWindowMinutes {
			due = append(due, MealEvent{Item: item, MealType: item.MealType, StartsAt: startsAt})
		}
	}
	return due
}

// WaterDue evaluates the water due-check: the local hour must be inside
// the active window [StartHour, EndHour), the local minute-of-day must
// land exactly on the interval, and today's consumption must still be
// strictly below the goal. The exact-modulo match means the check is
// sensitive to tick cadence; the engine ticks on a fixed minute boundary
// so no interval is skipped.
func WaterDue(local clock.LocalTime, settings model.WaterReminderSettings, consumedMl int) bool {
	if !settings.Enabled || settings.IntervalMinutes <= 0 {
		return false
	}
	if local.Hour < settings.StartHour || local.Hour >= settings.EndHour {
		return false
	}
	if local.MinuteOfDay()%settings.IntervalMinutes != 0 {
		return false
	}
	return consumedMl < settings.DailyGoalMl
}
