package reminder

import (
	"testing"
	"time"

	"github.com/dhollis/peckish/internal/clock"
	"github.com/dhollis/peckish/internal/model"
)

func localAt(t *testing.T, tz string, hour, minute int) clock.LocalTime {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load location %s: %v", tz, err)
	}
	instant := time.Date(2026, 3, 16, hour, minute, 0, 0, loc)
	return clock.Resolve(instant.UTC(), tz)
}

func TestDueMealEventsWindow(t *testing.T) {
	// Lunch at 12:30, remind 15 minutes before: target 12:15, window
	// [12:15, 12:20).
	settings := model.MealReminderSettings{
		Enabled:             true,
		RemindMinutesBefore: 15,
		EnabledMealTypes:    []string{model.MealLunch},
	}
	schedule := map[string]string{model.MealLunch: "12:30"}
	items := []model.MealPlanItem{{ID: 1, MealType: model.MealLunch, Description: "Grilled chicken salad"}}

	tests := []struct {
		hour, minute int
		due          bool
	}{
		{12, 9, false},
		{12, 14, false},
		{12, 15, true},
		{12, 17, true},
		{12, 19, true},
		{12, 20, false},
		{12, 21, false},
		{12, 30, false},
	}
	for _, tt := range tests {
		local := localAt(t, "America/Sao_Paulo", tt.hour, tt.minute)
		got := DueMealEvents(local, settings, schedule, items)
		if due := len(got) == 1; due != tt.due {
			t.Errorf("at %02d:%02d due = %v, want %v", tt.hour, tt.minute, due, tt.due)
		}
	}
}

func TestDueMealEventsSkipsCompletedAndDisabled(t *testing.T) {
	settings := model.MealReminderSettings{
		Enabled:          true,
		EnabledMealTypes: []string{model.MealBreakfast},
	}
	schedule := map[string]string{
		model.MealBreakfast: "08:00",
		model.MealLunch:     "08:00",
	}
	items := []model.MealPlanItem{
		{ID: 1, MealType: model.MealBreakfast, Completed: true},
		{ID: 2, MealType: model.MealLunch}, // lunch not in EnabledMealTypes
	}

	local := localAt(t, "America/Sao_Paulo", 8, 0)
	if got := DueMealEvents(local, settings, schedule, items); len(got) != 0 {
		t.Errorf("got %d events, want 0", len(got))
	}
}

func TestDueMealEventsDisabledGlobally(t *testing.T) {
	settings := model.MealReminderSettings{
		Enabled:          false,
		EnabledMealTypes: []string{model.MealDinner},
	}
	schedule := map[string]string{model.MealDinner: "19:30"}
	items := []model.MealPlanItem{{ID: 1, MealType: model.MealDinner}}

	local := localAt(t, "America/Sao_Paulo", 19, 30)
	if got := DueMealEvents(local, settings, schedule, items); got != nil {
		t.Errorf("got %d events, want none", len(got))
	}
}

func TestWaterDueSweep(t *testing.T) {
	settings := model.WaterReminderSettings{
		Enabled:         true,
		DailyGoalMl:     2000,
		IntervalMinutes: 60,
		StartHour:       8,
		EndHour:         22,
	}

	var dueMinutes []int
	for m := 0; m < 24*60; m++ {
		local := localAt(t, "Asia/Tokyo", m/60, m%60)
		if WaterDue(local, settings, 500) {
			dueMinutes = append(dueMinutes, m)
		}
	}

	// Every full hour inside [08:00, 22:00), 14 firings total.
	if len(dueMinutes) != 14 {
		t.Fatalf("got %d due minutes, want 14: %v", len(dueMinutes), dueMinutes)
	}
	for i, m := range dueMinutes {
		if want := (8 + i) * 60; m != want {
			t.Errorf("dueMinutes[%d] = %d, want %d", i, m, want)
		}
	}
}

func TestWaterDueGoalReached(t *testing.T) {
	settings := model.WaterReminderSettings{
		Enabled:         true,
		DailyGoalMl:     2000,
		IntervalMinutes: 60,
		StartHour:       8,
		EndHour:         22,
	}
	local := localAt(t, "Asia/Tokyo", 10, 0)

	if !WaterDue(local, settings, 1999) {
		t.Error("1999ml of 2000ml goal should still be due")
	}
	if WaterDue(local, settings, 2000) {
		t.Error("exactly at goal should not be due")
	}
	if WaterDue(local, settings, 2500) {
		t.Error("over goal should not be due")
	}
}

func TestWaterDueOffInterval(t *testing.T) {
	settings := model.WaterReminderSettings{
		Enabled:         true,
		DailyGoalMl:     2000,
		IntervalMinutes: 90,
		StartHour:       0,
		EndHour:         24,
	}

	// 90-minute interval: minute-of-day must be a multiple of 90.
	if !WaterDue(localAt(t, "Asia/Tokyo", 1, 30), settings, 0) {
		t.Error("01:30 (minute 90) should be due")
	}
	if WaterDue(localAt(t, "Asia/Tokyo", 1, 0), settings, 0) {
		t.Error("01:00 (minute 60) should not be due")
	}
}

func TestWaterDueDisabled(t *testing.T) {
	settings := model.WaterReminderSettings{
		Enabled:         false,
		DailyGoalMl:     2000,
		IntervalMinutes: 60,
		StartHour:       8,
		EndHour:         22,
	}
	if WaterDue(localAt(t, "Asia/Tokyo", 10, 0), settings, 0) {
		t.Error("disabled settings should never be due")
	}
}
