package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/onnwee/vod-chat/db"
)

// SetupTestDB opens a migrated store. It uses TEST_PG_DSN when set and a
// throwaway SQLite file otherwise.
func SetupTestDB(t *testing.T) *db.Store {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		dsn = "sqlite:" + filepath.Join(t.TempDir(), "test.db")
	}
	ctx := context.Background()
	store, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
