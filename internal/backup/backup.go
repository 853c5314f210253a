// Package backup uploads nightly encrypted snapshots of the SQLite
// database to S3-compatible storage.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"
)

const keyPrefix = "snapshots/"

// s3Client is the slice of the S3 API the manager uses; an interface for
// testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds backup configuration. Missing bucket or credentials
// disable the manager.
type Config struct {
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Passphrase    string
	DBPath        string
	Hour          int // UTC hour of the nightly snapshot
	RetentionDays int
}

// Status is the manager's last known state.
type Status struct {
	Enabled    bool       `json:"enabled"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// Manager runs the nightly snapshot loop.
type Manager struct {
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger

	mu     sync.RWMutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager. The returned manager is disabled
// when S3 settings or the passphrase are incomplete.
func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, db: db, logger: logger}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg)
		m.status.Enabled = true
	}
	return m
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start begins the snapshot loop; a no-op when disabled.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if !m.status.Enabled {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now().UTC()
				if now.Hour() != m.cfg.Hour || now.Minute() != 0 {
					continue
				}
				if err := m.RunNow(ctx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
				if err := m.cleanup(ctx, now); err != nil {
					m.logger.Error("backup cleanup failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// RunNow takes one snapshot: checkpoint the WAL, copy the file, encrypt
// it, and upload. The upload is retried with backoff; everything else
// fails fast.
func (m *Manager) RunNow(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return fmt.Errorf("backup not configured")
	}

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	key := fmt.Sprintf("%speckish-%s.db.enc", keyPrefix, timestamp)

	tmpDir := os.TempDir()
	dbCopy := filepath.Join(tmpDir, "peckish-backup.db")
	encFile := filepath.Join(tmpDir, "peckish-backup.db.enc")
	defer os.Remove(dbCopy)
	defer os.Remove(encFile)

	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return m.fail(fmt.Errorf("wal checkpoint: %w", err))
	}
	if err := copyFile(m.cfg.DBPath, dbCopy); err != nil {
		return m.fail(fmt.Errorf("copy database: %w", err))
	}
	if err := EncryptFile(dbCopy, encFile, m.cfg.Passphrase); err != nil {
		return m.fail(fmt.Errorf("encrypt: %w", err))
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		f, err := os.Open(encFile)
		if err != nil {
			return err
		}
		defer f.Close()
		stat, err := f.Stat()
		if err != nil {
			return err
		}
		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(m.cfg.Bucket),
			Key:           aws.String(key),
			Body:          f,
			ContentLength: aws.Int64(stat.Size()),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return m.fail(fmt.Errorf("upload to s3: %w", err))
	}

	now := time.Now().UTC()
	m.mu.Lock()
	m.status.LastBackup = &now
	m.status.LastError = ""
	m.mu.Unlock()

	m.logger.Info("backup uploaded", "key", key)
	return nil
}

// cleanup deletes snapshots older than the retention window.
func (m *Manager) cleanup(ctx context.Context, now time.Time) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil || m.cfg.RetentionDays <= 0 {
		return nil
	}

	cutoff := now.AddDate(0, 0, -m.cfg.RetentionDays)
	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.cfg.Bucket),
		Prefix: aws.String(keyPrefix),
	})
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	for _, obj := range out.Contents {
		if obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
			continue
		}
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    obj.Key,
		})
		if err != nil {
			return fmt.Errorf("delete snapshot %s: %w", aws.ToString(obj.Key), err)
		}
		m.logger.Info("expired backup deleted", "key", aws.ToString(obj.Key))
	}
	return nil
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.status.LastError = err.Error()
	m.mu.Unlock()
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
