// AngelaMos | 2026
// sqlite.go

package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/carterperez-dev/component-store/internal/core"
)

// NewSQLiteDB opens a private in-memory database with the schema applied.
// The pool is pinned to one connection so every query sees the same
// database.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := core.ApplySchema(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
