package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment
// variables (a local .env file is honored in development).
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// VAPID identifies this server to push services. Both keys are
	// base64url-encoded P-256 material; Subject is a contact URI.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	PushTTL      int // seconds
	PushUrgency  string
	PushTimeout  time.Duration
	TickInterval time.Duration
	MaxInFlight  int64

	// Backup is optional; missing S3 credentials disable it.
	BackupBucket     string
	BackupEndpoint   string
	BackupRegion     string
	BackupAccessKey  string
	BackupSecretKey  string
	BackupPassphrase string
	BackupHour       int
	BackupRetention  int // days
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	godotenv.Load()

	cfg := &Config{
		Port:      envDefault("PECKISH_PORT", "8080"),
		DBPath:    envDefault("PECKISH_DB_PATH", "peckish.db"),
		LogLevel:  envDefault("PECKISH_LOG_LEVEL", "info"),
		LogFormat: envDefault("PECKISH_LOG_FORMAT", "text"),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    envDefault("VAPID_SUBJECT", "mailto:notifications@peckish.app"),

		PushTTL:      envInt("PECKISH_PUSH_TTL", 3600),
		PushUrgency:  envDefault("PECKISH_PUSH_URGENCY", "high"),
		PushTimeout:  envDuration("PECKISH_PUSH_TIMEOUT", 10*time.Second),
		TickInterval: envDuration("PECKISH_TICK_INTERVAL", time.Minute),
		MaxInFlight:  int64(envInt("PECKISH_MAX_IN_FLIGHT", 8)),

		BackupBucket:     os.Getenv("PECKISH_BACKUP_BUCKET"),
		BackupEndpoint:   os.Getenv("PECKISH_BACKUP_ENDPOINT"),
		BackupRegion:     envDefault("PECKISH_BACKUP_REGION", "auto"),
		BackupAccessKey:  os.Getenv("PECKISH_BACKUP_ACCESS_KEY"),
		BackupSecretKey:  os.Getenv("PECKISH_BACKUP_SECRET_KEY"),
		BackupPassphrase: os.Getenv("PECKISH_BACKUP_PASSPHRASE"),
		BackupHour:       envInt("PECKISH_BACKUP_HOUR", 3),
		BackupRetention:  envInt("PECKISH_BACKUP_RETENTION_DAYS", 30),
	}

	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are required (generate with vapidgen)")
	}

	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
