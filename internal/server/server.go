package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dhollis/peckish/internal/backup"
	"github.com/dhollis/peckish/internal/config"
	"github.com/dhollis/peckish/internal/handler"
	"github.com/dhollis/peckish/internal/hub"
	"github.com/dhollis/peckish/internal/middleware"
	"github.com/dhollis/peckish/internal/reminder"
	"github.com/dhollis/peckish/internal/store"
	"github.com/dhollis/peckish/internal/webpush"
)

// Server wires stores, the reminder engine, and handlers into one HTTP
// surface.
type Server struct {
	db            *sql.DB
	events        *hub.Hub
	userH         *handler.UserHandler
	pushH         *handler.PushHandler
	reminderH     *handler.ReminderHandler
	waterH        *handler.WaterHandler
	planH         *handler.PlanHandler
	notifH        *handler.NotificationHandler
	runH          *handler.RunHandler
	engine        *reminder.Engine
	runner        *reminder.Runner
	backupManager *backup.Manager
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

// New builds the full dependency graph from configuration.
func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	auth, err := webpush.NewAuthenticator(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("vapid keys: %w", err)
	}

	events := hub.New(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	pushStore := store.NewPushStore(db)
	reminderStore := store.NewReminderStore(db)
	planStore := store.NewPlanStore(db)
	waterStore := store.NewWaterStore(db)
	notifStore := store.NewNotificationStore(db)

	engine := reminder.NewEngine(
		store.NewEngineStore(db),
		auth,
		webpush.NewTransport(cfg.PushTimeout),
		reminder.Config{
			Subject:       cfg.VAPIDSubject,
			TTL:           cfg.PushTTL,
			Urgency:       cfg.PushUrgency,
			MaxConcurrent: cfg.MaxInFlight,
		},
		logger.With("component", "reminder"),
	)

	runner := reminder.NewRunner(engine, cfg.TickInterval, func(sum reminder.Summary) {
		events.Broadcast(hub.Message{Type: "run_summary", Data: sum})
	}, logger.With("component", "runner"))

	backupMgr := backup.NewManager(backup.Config{
		Bucket:        cfg.BackupBucket,
		Endpoint:      cfg.BackupEndpoint,
		Region:        cfg.BackupRegion,
		AccessKey:     cfg.BackupAccessKey,
		SecretKey:     cfg.BackupSecretKey,
		Passphrase:    cfg.BackupPassphrase,
		DBPath:        cfg.DBPath,
		Hour:          cfg.BackupHour,
		RetentionDays: cfg.BackupRetention,
	}, db, logger.With("component", "backup"))

	return &Server{
		db:            db,
		events:        events,
		userH:         handler.NewUserHandler(userStore, logger),
		pushH:         handler.NewPushHandler(pushStore, engine, cfg.VAPIDPublicKey, logger),
		reminderH:     handler.NewReminderHandler(reminderStore, logger),
		waterH:        handler.NewWaterHandler(waterStore, userStore, events, logger),
		planH:         handler.NewPlanHandler(planStore, userStore, logger),
		notifH:        handler.NewNotificationHandler(notifStore, logger),
		runH:          handler.NewRunHandler(engine, logger),
		engine:        engine,
		runner:        runner,
		backupManager: backupMgr,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}, nil
}

// Runner returns the reminder runner for lifecycle management.
func (s *Server) Runner() *reminder.Runner {
	return s.runner
}

// BackupManager returns the backup manager for lifecycle management.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Profile
	mux.HandleFunc("POST /api/users", s.userH.Create)
	mux.HandleFunc("GET /api/users/{user_id}", s.userH.Get)
	mux.HandleFunc("PUT /api/users/{user_id}/profile", s.userH.UpdateProfile)
	mux.HandleFunc("PUT /api/users/{user_id}/meal-times", s.userH.UpdateMealTimes)

	// Push subscriptions
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/users/{user_id}/push/subscriptions", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/users/{user_id}/push/subscriptions", s.pushH.List)
	mux.HandleFunc("DELETE /api/users/{user_id}/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("POST /api/users/{user_id}/push/test", s.rateLimited(s.pushH.Test))

	// Reminder settings
	mux.HandleFunc("GET /api/users/{user_id}/reminders/meal", s.reminderH.GetMeal)
	mux.HandleFunc("PUT /api/users/{user_id}/reminders/meal", s.reminderH.PutMeal)
	mux.HandleFunc("GET /api/users/{user_id}/reminders/water", s.reminderH.GetWater)
	mux.HandleFunc("PUT /api/users/{user_id}/reminders/water", s.reminderH.PutWater)

	// Water intake
	mux.HandleFunc("POST /api/users/{user_id}/water", s.waterH.Log)
	mux.HandleFunc("GET /api/users/{user_id}/water/today", s.waterH.Today)

	// Meal plans
	mux.HandleFunc("POST /api/users/{user_id}/plans", s.planH.Create)
	mux.HandleFunc("POST /api/users/{user_id}/plans/{id}/items", s.planH.AddItem)
	mux.HandleFunc("GET /api/users/{user_id}/plans/today", s.planH.Today)
	mux.HandleFunc("POST /api/users/{user_id}/plan-items/{id}/complete", s.planH.CompleteItem)

	// Notification feed
	mux.HandleFunc("GET /api/users/{user_id}/notifications", s.notifH.List)
	mux.HandleFunc("POST /api/users/{user_id}/notifications/{id}/read", s.notifH.MarkRead)

	// Scheduler runs
	mux.HandleFunc("GET /api/runs/last", s.runH.Last)
	mux.HandleFunc("POST /api/runs", s.rateLimited(s.runH.Trigger))

	// Backup
	mux.HandleFunc("GET /api/backup/status", s.backupStatusHandler)

	// WebSocket
	mux.HandleFunc("GET /ws", hub.Handler(s.events))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

// rateLimited guards the endpoints that fan out real pushes.
func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) backupStatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.backupManager.Status())
}
