package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// OpenTestSQLite gives a test its own migrated metastore: a write/read pool
// pair over a file in t.TempDir(), closed automatically when the test ends.
// Tests that never exercise the read/write split can use writeDB alone.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "metastore.sqlite"), 4)
	if err != nil {
		t.Fatalf("opening test metastore: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("migrating test metastore: %v", err)
	}
	return writeDB, readDB
}
