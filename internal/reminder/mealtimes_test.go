package reminder

import (
	"testing"

	"github.com/dhollis/peckish/internal/model"
)

func TestDaySchedulePrecedence(t *testing.T) {
	profile := map[string]string{
		model.MealBreakfast: "07:00",
		model.MealLunch:     "13:00",
	}
	plan := map[string]string{
		model.MealLunch: "12:00",
	}

	sched := DaySchedule(plan, profile)

	if sched[model.MealLunch] != "12:00" {
		t.Errorf("lunch = %s, want plan override 12:00", sched[model.MealLunch])
	}
	if sched[model.MealBreakfast] != "07:00" {
		t.Errorf("breakfast = %s, want profile override 07:00", sched[model.MealBreakfast])
	}
	if sched[model.MealDinner] != model.DefaultMealTimes[model.MealDinner] {
		t.Errorf("dinner = %s, want default %s", sched[model.MealDinner], model.DefaultMealTimes[model.MealDinner])
	}
}

func TestDayScheduleCoversAllMealTypes(t *testing.T) {
	sched := DaySchedule(nil, nil)
	for _, mt := range model.MealTypes {
		if sched[mt] == "" {
			t.Errorf("no time resolved for %s", mt)
		}
	}
}

func TestPlanPosition(t *testing.T) {
	tests := []struct {
		start, date   string
		week, weekday int
	}{
		{"2026-03-02", "2026-03-02", 0, 0},
		{"2026-03-02", "2026-03-05", 0, 3},
		{"2026-03-02", "2026-03-09", 1, 0},
		{"2026-03-02", "2026-03-20", 2, 4},
	}
	for _, tt := range tests {
		week, weekday, err := PlanPosition(tt.start, tt.date)
		if err != nil {
			t.Errorf("PlanPosition(%s, %s) error: %v", tt.start, tt.date, err)
			continue
		}
		if week != tt.week || weekday != tt.weekday {
			t.Errorf("PlanPosition(%s, %s) = (%d, %d), want (%d, %d)",
				tt.start, tt.date, week, weekday, tt.week, tt.weekday)
		}
	}
}

func TestPlanPositionBeforeStart(t *testing.T) {
	if _, _, err := PlanPosition("2026-03-02", "2026-03-01"); err == nil {
		t.Error("expected error for date before plan start")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		min     int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:05", 485, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseClock(%q) err = %v, wantErr = %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.min {
			t.Errorf("parseClock(%q) = %d, want %d", tt.in, got, tt.min)
		}
	}
}
