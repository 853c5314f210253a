package model

import "time"

// Water reminder defaults, applied by the scheduler when a user has no
// settings row.
const (
	DefaultWaterGoalMl      = 2000
	DefaultWaterIntervalMin = 60
	DefaultWaterStartHour   = 8
	DefaultWaterEndHour     = 22
)

// MealReminderSettings configures meal reminders for one user.
type MealReminderSettings struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	Enabled             bool      `json:"enabled"`
	RemindMinutesBefore int       `json:"remind_minutes_before"`
	EnabledMealTypes    []string  `json:"enabled_meal_types"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DefaultMealReminderSettings returns the settings used when no row
// exists: all meal types enabled, zero offset.
func DefaultMealReminderSettings(userID int64) MealReminderSettings {
	return MealReminderSettings{
		UserID:           userID,
		Enabled:          true,
		EnabledMealTypes: append([]string(nil), MealTypes...),
	}
}

// WaterReminderSettings configures water reminders for one user. The
// active window [StartHour, EndHour) is in the user's local clock.
type WaterReminderSettings struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Enabled         bool      `json:"enabled"`
	DailyGoalMl     int       `json:"daily_goal_ml"`
	IntervalMinutes int       `json:"interval_minutes"`
	StartHour       int       `json:"start_hour"`
	EndHour         int       `json:"end_hour"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultWaterReminderSettings returns the settings used when no row exists.
func DefaultWaterReminderSettings(userID int64) WaterReminderSettings {
	return WaterReminderSettings{
		UserID:          userID,
		Enabled:         true,
		DailyGoalMl:     DefaultWaterGoalMl,
		IntervalMinutes: DefaultWaterIntervalMin,
		StartHour:       DefaultWaterStartHour,
		EndHour:         DefaultWaterEndHour,
	}
}

// WaterIntake is one logged drink. ConsumedOn is the user-local calendar
// date it counts toward.
type WaterIntake struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	AmountMl   int       `json:"amount_ml"`
	ConsumedOn string    `json:"consumed_on"`
	CreatedAt  time.Time `json:"created_at"`
}
