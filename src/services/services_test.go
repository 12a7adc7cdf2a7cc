package services

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/username/ledgerly/backend/src/database"
	"github.com/username/ledgerly/backend/src/logger"
	"github.com/username/ledgerly/backend/src/models"
	"github.com/username/ledgerly/backend/src/store"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

type testEnv struct {
	db           *sql.DB
	userID       int64
	transactions store.TransactionStore
	categories   store.CategoryStore
	rules        store.RuleStore
	uploads      store.UploadStore
	cache        *UserCache
	other        *models.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSchema(db))

	res, err := db.Exec(`
	INSERT INTO users (username, password, email, is_email_verified)
	VALUES ('alice', 'hash', 'alice@example.com', TRUE)`)
	require.NoError(t, err)
	userID, err := res.LastInsertId()
	require.NoError(t, err)

	categories := store.NewCategoryStore(db)
	require.NoError(t, categories.CreateDefaultSet(userID))
	other, err := categories.FindOther(userID)
	require.NoError(t, err)

	return &testEnv{
		db:           db,
		userID:       userID,
		transactions: store.NewTransactionStore(db),
		categories:   categories,
		rules:        store.NewRuleStore(db),
		uploads:      store.NewUploadStore(db),
		cache:        NewUserCache(),
		other:        other,
	}
}

func (e *testEnv) categoryByName(t *testing.T, name string) models.Category {
	t.Helper()
	all, err := e.categories.FindForUser(e.userID)
	require.NoError(t, err)
	for _, c := range all {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not found", name)
	return models.Category{}
}

func (e *testEnv) addRule(t *testing.T, keyword string, categoryID int64, priority int) {
	t.Helper()
	require.NoError(t, e.rules.Create(&models.Rule{
		UserID:     &e.userID,
		Keyword:    keyword,
		CategoryID: categoryID,
		Priority:   priority,
	}))
	e.cache.InvalidateUser(e.userID)
}
