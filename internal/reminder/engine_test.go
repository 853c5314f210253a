package reminder

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dhollis/peckish/internal/model"
	"github.com/dhollis/peckish/internal/webpush"
)

type fakeStore struct {
	mu sync.Mutex

	users         map[int64]*model.User
	subs          map[int64][]model.PushSubscription
	mealSettings  map[int64]*model.MealReminderSettings
	waterSettings map[int64]*model.WaterReminderSettings
	plans         map[int64]*model.MealPlan
	items         []model.MealPlanItem
	consumed      map[int64]int

	deleted       []int64
	notifications []model.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         map[int64]*model.User{},
		subs:          map[int64][]model.PushSubscription{},
		mealSettings:  map[int64]*model.MealReminderSettings{},
		waterSettings: map[int64]*model.WaterReminderSettings{},
		plans:         map[int64]*model.MealPlan{},
		consumed:      map[int64]int{},
	}
}

func (s *fakeStore) ActiveUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	for id := range s.subs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.users[userID], nil
}

func (s *fakeStore) SubscriptionsByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	return s.subs[userID], nil
}

func (s *fakeStore) MealSettings(ctx context.Context, userID int64) (*model.MealReminderSettings, error) {
	return s.mealSettings[userID], nil
}

func (s *fakeStore) WaterSettings(ctx context.Context, userID int64) (*model.WaterReminderSettings, error) {
	return s.waterSettings[userID], nil
}

func (s *fakeStore) CurrentPlan(ctx context.Context, userID int64, localDate string) (*model.MealPlan, error) {
	return s.plans[userID], nil
}

func (s *fakeStore) PlanItems(ctx context.Context, planID int64, week, weekday int) ([]model.MealPlanItem, error) {
	return s.items, nil
}

func (s *fakeStore) WaterConsumedMl(ctx context.Context, userID int64, localDate string) (int, error) {
	return s.consumed[userID], nil
}

func (s *fakeStore) DeleteSubscriptions(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, ids...)
	return nil
}

func (s *fakeStore) InsertNotification(ctx context.Context, userID int64, kind, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, model.Notification{UserID: userID, Kind: kind, Title: title, Body: body})
	return nil
}

// fakeSender classifies by endpoint instead of talking to a push service.
type fakeSender struct {
	mu       sync.Mutex
	outcomes map[string]webpush.Outcome
	sent     []webpush.Request
}

func (f *fakeSender) Send(ctx context.Context, req webpush.Request) (webpush.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	if o, ok := f.outcomes[req.Endpoint]; ok {
		return o, nil
	}
	return webpush.OutcomeSent, nil
}

func testSubscription(t *testing.T, id, userID int64, endpoint string) model.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, auth); err != nil {
		t.Fatalf("generate auth secret: %v", err)
	}
	return model.PushSubscription{
		ID:         id,
		UserID:     userID,
		Endpoint:   endpoint,
		P256dhKey:  base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		AuthSecret: base64.RawURLEncoding.EncodeToString(auth),
	}
}

func testEngine(t *testing.T, st Store, sender Sender) *Engine {
	t.Helper()
	pub, priv, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}
	auth, err := webpush.NewAuthenticator(pub, priv)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(st, auth, sender, Config{Subject: "mailto:test@example.com"}, logger)
}

func TestRunDeliversWaterReminderAndPrunes(t *testing.T) {
	st := newFakeStore()
	st.users[1] = &model.User{ID: 1, Timezone: "Asia/Tokyo", CountryCode: "JP"}
	st.subs[1] = []model.PushSubscription{
		testSubscription(t, 10, 1, "https://push.example.com/alive"),
		testSubscription(t, 11, 1, "https://push.example.com/gone"),
	}
	ws := model.DefaultWaterReminderSettings(1)
	st.waterSettings[1] = &ws
	st.mealSettings[1] = &model.MealReminderSettings{UserID: 1, Enabled: false}

	sender := &fakeSender{outcomes: map[string]webpush.Outcome{
		"https://push.example.com/gone": webpush.OutcomeExpired,
	}}
	engine := testEngine(t, st, sender)

	// 01:00 UTC is 10:00 in Tokyo: on the hour, inside [8, 22).
	nowUTC := time.Date(2026, 3, 16, 1, 0, 0, 0, time.UTC)
	sum, err := engine.Run(context.Background(), nowUTC)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if sum.Checked != 1 || sum.Due != 1 {
		t.Errorf("checked/due = %d/%d, want 1/1", sum.Checked, sum.Due)
	}
	if sum.Sent != 1 {
		t.Errorf("sent = %d, want 1", sum.Sent)
	}
	if sum.Failed != 0 {
		t.Errorf("failed = %d, want 0 (expired is not a failure)", sum.Failed)
	}
	if sum.Pruned != 1 {
		t.Errorf("pruned = %d, want 1", sum.Pruned)
	}
	if len(st.deleted) != 1 || st.deleted[0] != 11 {
		t.Errorf("deleted = %v, want [11]", st.deleted)
	}
	if len(st.notifications) != 1 {
		t.Fatalf("notifications = %d, want exactly 1 per event", len(st.notifications))
	}
	if st.notifications[0].Kind != model.NotifKindWaterReminder {
		t.Errorf("notification kind = %s", st.notifications[0].Kind)
	}
}

func TestRunDeliversMealReminder(t *testing.T) {
	st := newFakeStore()
	st.users[2] = &model.User{ID: 2, Timezone: "America/Sao_Paulo", CountryCode: "BR"}
	st.subs[2] = []model.PushSubscription{
		testSubscription(t, 20, 2, "https://push.example.com/device"),
	}
	st.mealSettings[2] = &model.MealReminderSettings{
		UserID:              2,
		Enabled:             true,
		RemindMinutesBefore: 15,
		EnabledMealTypes:    []string{model.MealLunch},
	}
	st.waterSettings[2] = &model.WaterReminderSettings{UserID: 2, Enabled: false}
	st.plans[2] = &model.MealPlan{
		ID:        5,
		UserID:    2,
		StartDate: "2026-03-16",
		MealTimes: map[string]string{model.MealLunch: "12:30"},
	}
	st.items = []model.MealPlanItem{{ID: 7, PlanID: 5, MealType: model.MealLunch, Description: "Feijoada"}}

	sender := &fakeSender{}
	engine := testEngine(t, st, sender)

	// 15:15 UTC is 12:15 in Sao Paulo: exactly at target (12:30 - 15min).
	nowUTC := time.Date(2026, 3, 16, 15, 15, 0, 0, time.UTC)
	sum, err := engine.Run(context.Background(), nowUTC)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if sum.Due != 1 || sum.Sent != 1 {
		t.Fatalf("due/sent = %d/%d, want 1/1", sum.Due, sum.Sent)
	}
	if len(st.notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(st.notifications))
	}
	if st.notifications[0].Title != "Hora da refeição" {
		t.Errorf("notification title = %q, want localized BR title", st.notifications[0].Title)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sender calls = %d, want 1", len(sender.sent))
	}
	if sender.sent[0].Endpoint != "https://push.example.com/device" {
		t.Errorf("endpoint = %s", sender.sent[0].Endpoint)
	}
}

func TestRunNothingDue(t *testing.T) {
	st := newFakeStore()
	st.users[1] = &model.User{ID: 1, Timezone: "Asia/Tokyo"}
	st.subs[1] = []model.PushSubscription{
		testSubscription(t, 10, 1, "https://push.example.com/alive"),
	}
	ws := model.DefaultWaterReminderSettings(1)
	st.waterSettings[1] = &ws
	st.mealSettings[1] = &model.MealReminderSettings{UserID: 1, Enabled: false}

	sender := &fakeSender{}
	engine := testEngine(t, st, sender)

	// 10:07 in Tokyo: inside the window but off the interval.
	nowUTC := time.Date(2026, 3, 16, 1, 7, 0, 0, time.UTC)
	sum, err := engine.Run(context.Background(), nowUTC)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if sum.Due != 0 || sum.Sent != 0 || len(sender.sent) != 0 {
		t.Errorf("due/sent = %d/%d with %d sends, want all zero", sum.Due, sum.Sent, len(sender.sent))
	}
	if len(st.notifications) != 0 {
		t.Errorf("notifications = %d, want 0", len(st.notifications))
	}
}

func TestRunDefaultsApplyWithoutSettingsRows(t *testing.T) {
	st := newFakeStore()
	st.users[1] = &model.User{ID: 1, Timezone: "Asia/Tokyo"}
	st.subs[1] = []model.PushSubscription{
		testSubscription(t, 10, 1, "https://push.example.com/alive"),
	}
	// No meal or water settings rows, no plan: water defaults still apply.

	sender := &fakeSender{}
	engine := testEngine(t, st, sender)

	nowUTC := time.Date(2026, 3, 16, 1, 0, 0, 0, time.UTC)
	sum, err := engine.Run(context.Background(), nowUTC)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Due != 1 || sum.Sent != 1 {
		t.Errorf("due/sent = %d/%d, want 1/1 from default water settings", sum.Due, sum.Sent)
	}
}

func TestLastSummary(t *testing.T) {
	st := newFakeStore()
	sender := &fakeSender{}
	engine := testEngine(t, st, sender)

	if engine.LastSummary() != nil {
		t.Fatal("expected nil summary before first run")
	}

	sum, err := engine.Run(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := engine.LastSummary(); got == nil || got.RunID != sum.RunID {
		t.Error("last summary does not match the completed run")
	}
}

func TestTestPush(t *testing.T) {
	st := newFakeStore()
	st.users[1] = &model.User{ID: 1, Timezone: "Asia/Tokyo"}
	st.subs[1] = []model.PushSubscription{
		testSubscription(t, 10, 1, "https://push.example.com/alive"),
		testSubscription(t, 11, 1, "https://push.example.com/gone"),
	}

	sender := &fakeSender{outcomes: map[string]webpush.Outcome{
		"https://push.example.com/gone": webpush.OutcomeExpired,
	}}
	engine := testEngine(t, st, sender)

	sent, err := engine.TestPush(context.Background(), 1)
	if err != nil {
		t.Fatalf("test push: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
	if len(st.deleted) != 1 || st.deleted[0] != 11 {
		t.Errorf("deleted = %v, want [11]", st.deleted)
	}
}
