package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/username/ledgerly/backend/src/database"
	"github.com/username/ledgerly/backend/src/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One in-memory database per connection; keep the pool to one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSchema(db))
	return db
}

func seedUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	res, err := db.Exec(`
	INSERT INTO users (username, password, email, is_email_verified)
	VALUES (?, 'hash', ?, TRUE)`, username, username+"@example.com")
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedDefaultCategories(t *testing.T, db *sql.DB, userID int64) (CategoryStore, *models.Category) {
	t.Helper()
	categories := NewCategoryStore(db)
	require.NoError(t, categories.CreateDefaultSet(userID))
	other, err := categories.FindOther(userID)
	require.NoError(t, err)
	return categories, other
}
