package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dhollis/peckish/internal/model"
)

type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

// GetMealSettings returns nil when the user has no row; the scheduler
// applies defaults explicitly, the store never invents them.
func (s *ReminderStore) GetMealSettings(ctx context.Context, userID int64) (*model.MealReminderSettings, error) {
	var m model.MealReminderSettings
	var enabled int
	var types string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, enabled, remind_minutes_before, enabled_meal_types, updated_at
		 FROM meal_reminder_settings WHERE user_id = ?`, userID,
	).Scan(&m.ID, &m.UserID, &enabled, &m.RemindMinutesBefore, &types, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meal settings: %w", err)
	}
	m.Enabled = enabled != 0
	if err := json.Unmarshal([]byte(types), &m.EnabledMealTypes); err != nil {
		return nil, fmt.Errorf("decode enabled meal types for user %d: %w", userID, err)
	}
	return &m, nil
}

func (s *ReminderStore) UpsertMealSettings(ctx context.Context, m model.MealReminderSettings) (*model.MealReminderSettings, error) {
	types, err := json.Marshal(m.EnabledMealTypes)
	if err != nil {
		return nil, fmt.Errorf("encode enabled meal types: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO meal_reminder_settings (user_id, enabled, remind_minutes_before, enabled_meal_types, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET enabled = excluded.enabled,
		   remind_minutes_before = excluded.remind_minutes_before,
		   enabled_meal_types = excluded.enabled_meal_types,
		   updated_at = CURRENT_TIMESTAMP`,
		m.UserID, boolInt(m.Enabled), m.RemindMinutesBefore, string(types),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert meal settings: %w", err)
	}
	return s.GetMealSettings(ctx, m.UserID)
}

// GetWaterSettings returns nil when the user has no row.
func (s *ReminderStore) GetWaterSettings(ctx context.Context, userID int64) (*model.WaterReminderSettings, error) {
	var w model.WaterReminderSettings
	var enabled int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, enabled, daily_goal_ml, interval_minutes, start_hour, end_hour, updated_at
		 FROM water_reminder_settings WHERE user_id = ?`, userID,
	).Scan(&w.ID, &w.UserID, &enabled, &w.DailyGoalMl, &w.IntervalMinutes, &w.StartHour, &w.EndHour, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get water settings: %w", err)
	}
	w.Enabled = enabled != 0
	return &w, nil
}

func (s *ReminderStore) UpsertWaterSettings(ctx context.Context, w model.WaterReminderSettings) (*model.WaterReminderSettings, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO water_reminder_settings (user_id, enabled, daily_goal_ml, interval_minutes, start_hour, end_hour, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET enabled = excluded.enabled,
		   daily_goal_ml = excluded.daily_goal_ml,
		   interval_minutes = excluded.interval_minutes,
		   start_hour = excluded.start_hour,
		   end_hour = excluded.end_hour,
		   updated_at = CURRENT_TIMESTAMP`,
		w.UserID, boolInt(w.Enabled), w.DailyGoalMl, w.IntervalMinutes, w.StartHour, w.EndHour,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert water settings: %w", err)
	}
	return s.GetWaterSettings(ctx, w.UserID)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
