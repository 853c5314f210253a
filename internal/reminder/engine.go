package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/dhollis/peckish/internal/clock"
	"github.com/dhollis/peckish/internal/model"
	"github.com/dhollis/peckish/internal/webpush"
)

// Store is the slice of the relational store the engine needs. The
// concrete implementation lives in internal/store; tests use fakes.
type Store interface {
	ActiveUserIDs(ctx context.Context) ([]int64, error)
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	SubscriptionsByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	MealSettings(ctx context.Context, userID int64) (*model.MealReminderSettings, error)
	WaterSettings(ctx context.Context, userID int64) (*model.WaterReminderSettings, error)
	CurrentPlan(ctx context.Context, userID int64, localDate string) (*model.MealPlan, error)
	PlanItems(ctx context.Context, planID int64, week, weekday int) ([]model.MealPlanItem, error)
	WaterConsumedMl(ctx context.Context, userID int64, localDate string) (int, error)
	DeleteSubscriptions(ctx context.Context, ids []int64) error
	InsertNotification(ctx context.Context, userID int64, kind, title, body string) error
}

// Sender delivers one encrypted message; *webpush.Transport in
// production, a mock in tests.
type Sender interface {
	Send(ctx context.Context, req webpush.Request) (webpush.Outcome, error)
}

// Config holds delivery parameters.
type Config struct {
	Subject       string // VAPID contact URI (mailto: or https:)
	TTL           int    // seconds the push service may hold the message
	Urgency       string
	MaxConcurrent int64 // bound on in-flight deliveries per run
}

// Event is one due reminder for one user, text already resolved.
type Event struct {
	UserID int64
	Kind   string
	Title  string
	Body   string
	Tag    string
	URL    string
}

// payload is the JSON the service worker receives after decryption.
type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Summary aggregates one run; it is the only observability surface this
// subsystem emits.
type Summary struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Checked   int       `json:"checked"`
	Due       int       `json:"due"`
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
	Pruned    int       `json:"pruned"`
}

// Engine evaluates which reminders are due and fans them out through
// encryption and transport. It holds no state between runs: "due" is
// recomputed each tick from wall-clock time and stored configuration, so
// a crashed or missed tick loses at most one reminder, never state.
type Engine struct {
	store  Store
	auth   *webpush.Authenticator
	sender Sender
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	last *Summary
}

// NewEngine creates a reminder engine.
func NewEngine(st Store, auth *webpush.Authenticator, sender Sender, cfg Config, logger *slog.Logger) *Engine {
	if cfg.TTL <= 0 {
		cfg.TTL = 3600
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	return &Engine{store: st, auth: auth, sender: sender, cfg: cfg, logger: logger}
}

// LastSummary returns the most recent run summary, or nil before the
// first run.
func (e *Engine) LastSummary() *Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Run executes one scheduling pass at the given instant. Per-user and
// per-subscription failures are isolated; only a store error listing the
// candidate users aborts the run.
func (e *Engine) Run(ctx context.Context, nowUTC time.Time) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString(), StartedAt: nowUTC}
	logger := e.logger.With("run_id", sum.RunID)

	// One signed JWT per push-service origin for the whole run.
	headers := webpush.NewHeaderCache(e.auth, e.cfg.Subject, nowUTC)

	userIDs, err := e.store.ActiveUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}

	sem := semaphore.NewWeighted(e.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex // guards sum counters and pruneIDs during fan-out
	var pruneIDs []int64

	for _, userID := range userIDs {
		sum.Checked++

		user, err := e.store.GetUser(ctx, userID)
		if err != nil {
			logger.Error("load user", "user_id", userID, "error", err)
			continue
		}
		if user == nil {
			continue
		}

		local := clock.Resolve(nowUTC, user.Timezone)
		events := e.dueEvents(ctx, logger, user, local)
		if len(events) == 0 {
			continue
		}

		subs, err := e.store.SubscriptionsByUser(ctx, userID)
		if err != nil {
			logger.Error("load subscriptions", "user_id", userID, "error", err)
			continue
		}
		sum.Due += len(events)

		for _, ev := range events {
			// The in-app notification row is written once per event, on
			// the first successful send across this user's devices.
			var recordOnce sync.Once
			for _, sub := range subs {
				if err := sem.Acquire(ctx, 1); err != nil {
					break
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer sem.Release(1)

					outcome := e.deliver(ctx, logger, headers, ev, sub)

					mu.Lock()
					switch outcome {
					case webpush.OutcomeSent:
						sum.Sent++
					case webpush.OutcomeExpired:
						pruneIDs = append(pruneIDs, sub.ID)
					default:
						sum.Failed++
					}
					mu.Unlock()

					if outcome == webpush.OutcomeSent {
						recordOnce.Do(func() {
							// Best-effort: the push already went out, so a
							// failed row write must not fail the event.
							if err := e.store.InsertNotification(ctx, ev.UserID, ev.Kind, ev.Title, ev.Body); err != nil {
								logger.Warn("insert notification row", "user_id", ev.UserID, "error", err)
							}
						})
					}
				}()
			}
		}
	}

	wg.Wait()

	if len(pruneIDs) > 0 {
		if err := e.store.DeleteSubscriptions(ctx, pruneIDs); err != nil {
			logger.Error("prune expired subscriptions", "count", len(pruneIDs), "error", err)
		} else {
			sum.Pruned = len(pruneIDs)
		}
	}

	logger.Info("reminder run complete",
		"checked", sum.Checked, "due", sum.Due,
		"sent", sum.Sent, "failed", sum.Failed, "pruned", sum.Pruned)

	e.mu.Lock()
	e.last = sum
	e.mu.Unlock()
	return sum, nil
}

// dueEvents evaluates both reminder kinds for one user at their local
// time. Store errors here are logged and skip the kind, not the user.
func (e *Engine) dueEvents(ctx context.Context, logger *slog.Logger, user *model.User, local clock.LocalTime) []Event {
	var events []Event

	mealSettings, err := e.store.MealSettings(ctx, user.ID)
	if err != nil {
		logger.Error("load meal settings", "user_id", user.ID, "error", err)
	} else {
		ms := model.DefaultMealReminderSettings(user.ID)
		if mealSettings != nil {
			ms = *mealSettings
		}
		events = append(events, e.dueMealEvents(ctx, logger, user, local, ms)...)
	}

	waterSettings, err := e.store.WaterSettings(ctx, user.ID)
	if err != nil {
		logger.Error("load water settings", "user_id", user.ID, "error", err)
	} else {
		ws := model.DefaultWaterReminderSettings(user.ID)
		if waterSettings != nil {
			ws = *waterSettings
		}
		if ev := e.dueWaterEvent(ctx, logger, user, local, ws); ev != nil {
			events = append(events, *ev)
		}
	}

	return events
}

func (e *Engine) dueMealEvents(ctx context.Context, logger *slog.Logger, user *model.User, local clock.LocalTime, settings model.MealReminderSettings) []Event {
	if !settings.Enabled {
		return nil
	}

	plan, err := e.store.CurrentPlan(ctx, user.ID, local.Date)
	if err != nil {
		logger.Error("load current plan", "user_id", user.ID, "error", err)
		return nil
	}
	if plan == nil {
		return nil
	}

	week, weekday, err := PlanPosition(plan.StartDate, local.Date)
	if err != nil {
		logger.Warn("plan position", "user_id", user.ID, "plan_id", plan.ID, "error", err)
		return nil
	}

	items, err := e.store.PlanItems(ctx, plan.ID, week, weekday)
	if err != nil {
		logger.Error("load plan items", "user_id", user.ID, "plan_id", plan.ID, "error", err)
		return nil
	}

	schedule := DaySchedule(plan.MealTimes, user.MealTimes)
	var events []Event
	for _, me := range DueMealEvents(local, settings, schedule, items) {
		title, body := MealMessage(user.CountryCode, me.MealType)
		events = append(events, Event{
			UserID: user.ID,
			Kind:   model.NotifKindMealReminder,
			Title:  title,
			Body:   body,
			Tag:    fmt.Sprintf("meal-%s-%s", me.MealType, local.Date),
			URL:    "/plan",
		})
	}
	return events
}

func (e *Engine) dueWaterEvent(ctx context.Context, logger *slog.Logger, user *model.User, local clock.LocalTime, settings model.WaterReminderSettings) *Event {
	if !settings.Enabled {
		return nil
	}

	consumed, err := e.store.WaterConsumedMl(ctx, user.ID, local.Date)
	if err != nil {
		logger.Error("load water consumption", "user_id", user.ID, "error", err)
		return nil
	}
	if !WaterDue(local, settings, consumed) {
		return nil
	}

	title, body := WaterMessage(user.CountryCode, settings.DailyGoalMl)
	return &Event{
		UserID: user.ID,
		Kind:   model.NotifKindWaterReminder,
		Title:  title,
		Body:   body,
		Tag:    "water-" + local.Date,
		URL:    "/water",
	}
}

// TestPush sends a test notification to every device of one user,
// outside any scheduling pass. Expired endpoints found along the way are
// pruned just like in a run.
func (e *Engine) TestPush(ctx context.Context, userID int64) (sent int, err error) {
	subs, err := e.store.SubscriptionsByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load subscriptions: %w", err)
	}

	headers := webpush.NewHeaderCache(e.auth, e.cfg.Subject, time.Now().UTC())
	ev := Event{
		UserID: userID,
		Kind:   model.NotifKindTest,
		Title:  "Test notification",
		Body:   "Push delivery is working!",
		Tag:    "test",
		URL:    "/settings",
	}

	var prune []int64
	for _, sub := range subs {
		switch e.deliver(ctx, e.logger, headers, ev, sub) {
		case webpush.OutcomeSent:
			sent++
		case webpush.OutcomeExpired:
			prune = append(prune, sub.ID)
		}
	}
	if len(prune) > 0 {
		if err := e.store.DeleteSubscriptions(ctx, prune); err != nil {
			e.logger.Error("prune expired subscriptions", "count", len(prune), "error", err)
		}
	}
	return sent, nil
}

// deliver runs one (event, subscription) attempt: decode keys, encrypt,
// sign, send. Every failure is contained to this attempt.
func (e *Engine) deliver(ctx context.Context, logger *slog.Logger, headers *webpush.HeaderCache, ev Event, sub model.PushSubscription) webpush.Outcome {
	keys, err := webpush.DecodeSubscriptionKeys(sub.P256dhKey, sub.AuthSecret)
	if err != nil {
		logger.Warn("bad subscription key material",
			"user_id", sub.UserID, "subscription_id", sub.ID, "error", err)
		return webpush.OutcomeTransient
	}

	data, err := json.Marshal(payload{Title: ev.Title, Body: ev.Body, URL: ev.URL, Tag: ev.Tag})
	if err != nil {
		logger.Error("marshal payload", "user_id", sub.UserID, "error", err)
		return webpush.OutcomeTransient
	}

	msg, err := webpush.Encrypt(data, keys)
	if err != nil {
		logger.Warn("encrypt message",
			"user_id", sub.UserID, "subscription_id", sub.ID, "error", err)
		return webpush.OutcomeTransient
	}

	authz, err := headers.For(sub.Endpoint)
	if err != nil {
		logger.Warn("vapid header",
			"user_id", sub.UserID, "subscription_id", sub.ID, "error", err)
		return webpush.OutcomeTransient
	}

	outcome, err := e.sender.Send(ctx, webpush.Request{
		Endpoint:      sub.Endpoint,
		Authorization: authz,
		TTL:           e.cfg.TTL,
		Urgency:       e.cfg.Urgency,
		Body:          msg.Body,
	})
	switch outcome {
	case webpush.OutcomeExpired:
		logger.Info("subscription expired",
			"user_id", sub.UserID, "subscription_id", sub.ID)
	case webpush.OutcomeTransient:
		logger.Warn("delivery failed",
			"user_id", sub.UserID, "subscription_id", sub.ID, "error", err)
	}
	return outcome
}
