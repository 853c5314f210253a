package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dhollis/peckish/internal/model"
)

type WaterStore struct {
	db *sql.DB
}

func NewWaterStore(db *sql.DB) *WaterStore {
	return &WaterStore{db: db}
}

// LogIntake records one drink against a user-local calendar date.
func (s *WaterStore) LogIntake(ctx context.Context, userID int64, amountMl int, consumedOn string) (*model.WaterIntake, error) {
	if amountMl <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amountMl)
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO water_intake (user_id, amount_ml, consumed_on) VALUES (?, ?, ?)`,
		userID, amountMl, consumedOn,
	)
	if err != nil {
		return nil, fmt.Errorf("log water intake: %w", err)
	}
	id, _ := result.LastInsertId()

	var intake model.WaterIntake
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount_ml, consumed_on, created_at FROM water_intake WHERE id = ?`, id,
	).Scan(&intake.ID, &intake.UserID, &intake.AmountMl, &intake.ConsumedOn, &intake.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get water intake: %w", err)
	}
	return &intake, nil
}

// ConsumedMl returns the cumulative intake for one user-local day.
func (s *WaterStore) ConsumedMl(ctx context.Context, userID int64, consumedOn string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_ml), 0) FROM water_intake WHERE user_id = ? AND consumed_on = ?`,
		userID, consumedOn,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum water intake: %w", err)
	}
	return total, nil
}

// ListDay returns the individual intake entries for one user-local day.
func (s *WaterStore) ListDay(ctx context.Context, userID int64, consumedOn string) ([]model.WaterIntake, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount_ml, consumed_on, created_at
		 FROM water_intake WHERE user_id = ? AND consumed_on = ? ORDER BY created_at, id`,
		userID, consumedOn,
	)
	if err != nil {
		return nil, fmt.Errorf("list water intake: %w", err)
	}
	defer rows.Close()

	var entries []model.WaterIntake
	for rows.Next() {
		var e model.WaterIntake
		if err := rows.Scan(&e.ID, &e.UserID, &e.AmountMl, &e.ConsumedOn, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan water intake: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
