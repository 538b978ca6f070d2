// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/nexxacraft/community-admin/internal/database"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database closed at test end.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
