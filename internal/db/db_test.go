package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"starlog/backend/internal/db"
)

func TestOpen(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "starlog-db-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	database, err := db.Open(dbPath)
	require.NoError(t, err)
	require.NotNil(t, database)
	defer database.Close()

	// Verify table exists (basic check)
	var name string
	err = database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='entries'").Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "entries", name)
}

func TestOpen_CreatesParentDir(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "starlog-db-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "dir", "test.db")
	database, err := db.Open(dbPath)
	require.NoError(t, err)
	defer database.Close()

	_, err = os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "starlog-db-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	database, err := db.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	// Migrations are idempotent on an existing database
	database, err = db.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, database.Close())
}

// Pragmas must be embedded in DSN to ensure all connections in the
// pool have them; busy_timeout in particular guards against "database
// is locked" under concurrent submissions.
func TestBuildDSN(t *testing.T) {
	dsn := db.BuildDSN("test.db")
	require.Contains(t, dsn, "file:test.db")
	require.Contains(t, dsn, "journal_mode%28WAL%29")
	require.Contains(t, dsn, "foreign_keys%28ON%29")
	require.Contains(t, dsn, "busy_timeout%2830000%29")
	require.Contains(t, dsn, "synchronous%28NORMAL%29")
}

func TestUniqueDateConstraint(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "starlog-db-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	database, err := db.Open(filepath.Join(tempDir, "test.db"))
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec(
		`INSERT INTO entries (id, title, body, date, created_at, updated_at) VALUES (1, 'a', 'b', '2024-01-01', 'now', 'now')`,
	)
	require.NoError(t, err)

	_, err = database.Exec(
		`INSERT INTO entries (id, title, body, date, created_at, updated_at) VALUES (2, 'c', 'd', '2024-01-01', 'now', 'now')`,
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "UNIQUE")
}
