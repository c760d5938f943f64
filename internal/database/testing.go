package database

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

var memSeq atomic.Int64

// NewTestDatabase returns a private in-memory SQLite store migrated with the
// given models. It is closed when the test ends.
func NewTestDatabase(t testing.TB, models ...interface{}) *Database {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, memSeq.Add(1))
	db, err := NewSQLite(dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Migrate(models...); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
