package store

import (
	"context"
	"database/sql"

	"github.com/dhollis/peckish/internal/model"
)

// EngineStore presents the per-entity stores as the single collaborator
// view the reminder engine consumes.
type EngineStore struct {
	users         *UserStore
	push          *PushStore
	reminders     *ReminderStore
	plans         *PlanStore
	water         *WaterStore
	notifications *NotificationStore
}

func NewEngineStore(db *sql.DB) *EngineStore {
	return &EngineStore{
		users:         NewUserStore(db),
		push:          NewPushStore(db),
		reminders:     NewReminderStore(db),
		plans:         NewPlanStore(db),
		water:         NewWaterStore(db),
		notifications: NewNotificationStore(db),
	}
}

func (s *EngineStore) ActiveUserIDs(ctx context.Context) ([]int64, error) {
	return s.push.ActiveUserIDs(ctx)
}

func (s *EngineStore) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *EngineStore) SubscriptionsByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	return s.push.ListByUser(ctx, userID)
}

func (s *EngineStore) MealSettings(ctx context.Context, userID int64) (*model.MealReminderSettings, error) {
	return s.reminders.GetMealSettings(ctx, userID)
}

func (s *EngineStore) WaterSettings(ctx context.Context, userID int64) (*model.WaterReminderSettings, error) {
	return s.reminders.GetWaterSettings(ctx, userID)
}

func (s *EngineStore) CurrentPlan(ctx context.Context, userID int64, localDate string) (*model.MealPlan, error) {
	return s.plans.CurrentPlan(ctx, userID, localDate)
}

func (s *EngineStore) PlanItems(ctx context.Context, planID int64, week, weekday int) ([]model.MealPlanItem, error) {
	return s.plans.ItemsFor(ctx, planID, week, weekday)
}

func (s *EngineStore) WaterConsumedMl(ctx context.Context, userID int64, localDate string) (int, error) {
	return s.water.ConsumedMl(ctx, userID, localDate)
}

func (s *EngineStore) DeleteSubscriptions(ctx context.Context, ids []int64) error {
	return s.push.DeleteBatch(ctx, ids)
}

func (s *EngineStore) InsertNotification(ctx context.Context, userID int64, kind, title, body string) error {
	return s.notifications.Insert(ctx, userID, kind, title, body)
}
