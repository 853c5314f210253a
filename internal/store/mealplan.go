package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dhollis/peckish/internal/model"
)

// ErrNotFound reports that a row does not exist or is not owned by the
// requesting user.
var ErrNotFound = errors.New("not found")

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

func (s *PlanStore) CreatePlan(ctx context.Context, userID int64, name, startDate string, mealTimes map[string]string) (*model.MealPlan, error) {
	if mealTimes == nil {
		mealTimes = map[string]string{}
	}
	times, err := json.Marshal(mealTimes)
	if err != nil {
		return nil, fmt.Errorf("encode meal times: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, name, start_date, meal_times) VALUES (?, ?, ?, ?)`,
		userID, name, startDate, string(times),
	)
	if err != nil {
		return nil, fmt.Errorf("create meal plan: %w", err)
	}
	id, _ := result.LastInsertId()
	return s.GetPlan(ctx, id, userID)
}

func (s *PlanStore) GetPlan(ctx context.Context, id, userID int64) (*model.MealPlan, error) {
	return s.scanPlan(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, start_date, meal_times, created_at
		 FROM meal_plans WHERE id = ? AND user_id = ?`, id, userID))
}

// CurrentPlan returns the most recently started plan covering the given
// local date, or nil when the user has no active plan.
func (s *PlanStore) CurrentPlan(ctx context.Context, userID int64, localDate string) (*model.MealPlan, error) {
	return s.scanPlan(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, start_date, meal_times, created_at
		 FROM meal_plans WHERE user_id = ? AND start_date <= ?
		 ORDER BY start_date DESC, id DESC LIMIT 1`, userID, localDate))
}

func (s *PlanStore) scanPlan(row *sql.Row) (*model.MealPlan, error) {
	var p model.MealPlan
	var times string
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.StartDate, &times, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meal plan: %w", err)
	}
	if err := json.Unmarshal([]byte(times), &p.MealTimes); err != nil {
		return nil, fmt.Errorf("decode plan meal times: %w", err)
	}
	return &p, nil
}

// AddItem upserts one planned meal into its (week, weekday, meal type)
// slot.
func (s *PlanStore) AddItem(ctx context.Context, planID int64, week, weekday int, mealType, description string) (*model.MealPlanItem, error) {
	if !model.ValidMealType(mealType) {
		return nil, fmt.Errorf("unknown meal type %q", mealType)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meal_plan_items (plan_id, week, weekday, meal_type, description)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(plan_id, week, weekday, meal_type) DO UPDATE SET
		   description = excluded.description, completed = 0`,
		planID, week, weekday, mealType, description,
	)
	if err != nil {
		return nil, fmt.Errorf("add plan item: %w", err)
	}

	var item model.MealPlanItem
	var completed int
	err = s.db.QueryRowContext(ctx,
		`SELECT id, plan_id, week, weekday, meal_type, description, completed, created_at
		 FROM meal_plan_items WHERE plan_id = ? AND week = ? AND weekday = ? AND meal_type = ?`,
		planID, week, weekday, mealType,
	).Scan(&item.ID, &item.PlanID, &item.Week, &item.Weekday, &item.MealType, &item.Description, &completed, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get plan item: %w", err)
	}
	item.Completed = completed != 0
	return &item, nil
}

// ItemsFor returns the planned meals in one (week, weekday) slot.
func (s *PlanStore) ItemsFor(ctx context.Context, planID int64, week, weekday int) ([]model.MealPlanItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, plan_id, week, weekday, meal_type, description, completed, created_at
		 FROM meal_plan_items WHERE plan_id = ? AND week = ? AND weekday = ?`,
		planID, week, weekday,
	)
	if err != nil {
		return nil, fmt.Errorf("list plan items: %w", err)
	}
	defer rows.Close()

	var items []model.MealPlanItem
	for rows.Next() {
		var item model.MealPlanItem
		var completed int
		if err := rows.Scan(&item.ID, &item.PlanID, &item.Week, &item.Weekday, &item.MealType, &item.Description, &completed, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan item: %w", err)
		}
		item.Completed = completed != 0
		items = append(items, item)
	}
	return items, rows.Err()
}

// CompleteItem marks an item done, which removes it from the reminder
// eligibility set. Ownership is checked through the plan.
func (s *PlanStore) CompleteItem(ctx context.Context, itemID, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE meal_plan_items SET completed = 1
		 WHERE id = ? AND plan_id IN (SELECT id FROM meal_plans WHERE user_id = ?)`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("complete plan item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("plan item %d: %w", itemID, ErrNotFound)
	}
	return nil
}
