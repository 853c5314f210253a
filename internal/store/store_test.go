package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dhollis/peckish/internal/database"
	"github.com/dhollis/peckish/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), "Ana", "ana@example.com", "America/Sao_Paulo", "BR")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}
