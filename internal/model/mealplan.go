package model

import "time"

// Meal type keys, in serving order. Schedules, settings, and plan items
// all reference these keys.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealSnack     = "snack"
	MealDinner    = "dinner"
)

// MealTypes is the global ordered meal-type list.
var MealTypes = []string{MealBreakfast, MealLunch, MealSnack, MealDinner}

// DefaultMealTimes are the global default local start times, used when
// neither the plan nor the profile overrides a meal type.
var DefaultMealTimes = map[string]string{
	MealBreakfast: "08:00",
	MealLunch:     "12:30",
	MealSnack:     "16:00",
	MealDinner:    "19:30",
}

// ValidMealType reports whether key is one of the global meal types.
func ValidMealType(key string) bool {
	for _, mt := range MealTypes {
		if mt == key {
			return true
		}
	}
	return false
}

// MealPlan is a multi-week plan of meals. StartDate is a local calendar
// date ("2006-01-02") in the owner's timezone; week and weekday positions
// of items are relative to it.
type MealPlan struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	// MealTimes holds plan-level custom start times ("HH:MM" per meal
	// type). These take precedence over profile-level times.
	MealTimes map[string]string `json:"meal_times,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// MealPlanItem is one planned meal. Week counts from 0; Weekday counts
// days 0-6 from the plan start date, not calendar weekdays.
type MealPlanItem struct {
	ID          int64     `json:"id"`
	PlanID      int64     `json:"plan_id"`
	Week        int       `json:"week"`
	Weekday     int       `json:"weekday"`
	MealType    string    `json:"meal_type"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}
