// Package testutil provides an in-memory database for tests.
package testutil

import (
	"testing"

	"zzpri-tracker/internal/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
)

// InitTestDB points database.DB at a fresh, migrated in-memory sqlite database.
func InitTestDB(t *testing.T) {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	if err := database.Connect(sqlite.Open(dsn)); err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := database.DB.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// a single connection keeps the shared in-memory database alive and serialised
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
		database.DB = nil
	})
}
