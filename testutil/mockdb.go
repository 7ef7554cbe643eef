package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a SQLite database file that is closed when the test ends
func OpenSQLite(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open database %s: %v", path, err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateInMemoryDB creates an in-memory SQLite database for testing.
// The pool is limited to one connection since every connection gets its own memory database.
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db := OpenSQLite(t, ":memory:")
	db.SetMaxOpenConns(1)
	return db
}

// CountRows returns the number of rows in table
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows of %s: %v", table, err)
	}
	return n
}
