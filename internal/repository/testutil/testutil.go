package testutil

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"starlog/backend/internal/db"
	"starlog/backend/internal/model"
	"starlog/backend/internal/snowflake"
)

var snowflakeOnce sync.Once

// NewTestDB opens a fresh migrated database in a per-test temp dir.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	snowflakeOnce.Do(func() {
		if err := snowflake.Init(0); err != nil {
			panic(err)
		}
	})

	dbConn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dbConn.Close()
	})
	return dbConn
}

// SeedEntry inserts an entry directly and returns its ID. Zero-value
// times default to now.
func SeedEntry(t *testing.T, dbConn *sql.DB, entry model.Entry) int64 {
	t.Helper()

	id := snowflake.NextID()
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	includeInt := 0
	if entry.IncludeAstronomy {
		includeInt = 1
	}
	var imageURL interface{}
	if entry.AstronomyImageURL != nil {
		imageURL = *entry.AstronomyImageURL
	}

	_, err := dbConn.Exec(
		`INSERT INTO entries (id, title, body, date, created_at, include_astronomy, astronomy_image_url, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		entry.Title,
		entry.Body,
		entry.Date,
		createdAt.UTC().Format(time.RFC3339),
		includeInt,
		imageURL,
		time.Now().UTC().Format(time.RFC3339),
	)
	require.NoError(t, err)
	return id
}
