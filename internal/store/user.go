package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dhollis/peckish/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, name, email, timezone, countryCode string) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, timezone, country_code) VALUES (?, ?, ?, ?)`,
		name, email, timezone, countryCode,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, _ := result.LastInsertId()
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	var mealTimes string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, timezone, country_code, meal_times, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Timezone, &u.CountryCode, &mealTimes, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := json.Unmarshal([]byte(mealTimes), &u.MealTimes); err != nil {
		return nil, fmt.Errorf("decode meal times for user %d: %w", id, err)
	}
	return &u, nil
}

// UpdateProfile sets the timezone and country code used for scheduling
// and message selection.
func (s *UserStore) UpdateProfile(ctx context.Context, id int64, timezone, countryCode string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET timezone = ?, country_code = ? WHERE id = ?`,
		timezone, countryCode, id,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateMealTimes replaces the profile-level custom meal start times.
func (s *UserStore) UpdateMealTimes(ctx context.Context, id int64, times map[string]string) error {
	data, err := json.Marshal(times)
	if err != nil {
		return fmt.Errorf("encode meal times: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET meal_times = ? WHERE id = ?`, string(data), id)
	if err != nil {
		return fmt.Errorf("update meal times: %w", err)
	}
	return nil
}
