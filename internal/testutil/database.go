package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/database"
)

// SetupTestDB opens a migrated throwaway database for one test.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}
