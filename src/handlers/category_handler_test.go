package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerly/backend/src/database"
	"github.com/username/ledgerly/backend/src/models"
	"github.com/username/ledgerly/backend/src/services"
	"github.com/username/ledgerly/backend/src/store"
)

type categoryTestEnv struct {
	db           *sql.DB
	userID       int64
	categories   store.CategoryStore
	transactions store.TransactionStore
	handler      *CategoryHandler
	other        *models.Category
}

func newCategoryTestEnv(t *testing.T) *categoryTestEnv {
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

	transactions := store.NewTransactionStore(db)
	rules := store.NewRuleStore(db)
	handler := NewCategoryHandler(categories, transactions, rules, services.NewUserCache())

	return &categoryTestEnv{
		db:           db,
		userID:       userID,
		categories:   categories,
		transactions: transactions,
		handler:      handler,
		other:        other,
	}
}

func (e *categoryTestEnv) seedSystemCategory(t *testing.T, name string) int64 {
	t.Helper()
	res, err := e.db.Exec(`
	INSERT INTO categories (user_id, name, display_order) VALUES (NULL, ?, 50)`, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func (e *categoryTestEnv) seedTransaction(t *testing.T, description string, categoryID int64) *models.Transaction {
	t.Helper()
	created, err := e.transactions.InsertOne(e.userID, store.NewTransaction{
		Candidate: models.CandidateTransaction{
			Date:          time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			Amount:        -1250,
			Description:   description,
			PaymentMethod: "card",
		},
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return created
}

func (e *categoryTestEnv) deleteRequest(categoryID string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/api/categories/"+categoryID, nil)
	req.SetPathValue("id", categoryID)
	return req.WithContext(context.WithValue(req.Context(), userIDContextKey, e.userID))
}

func (e *categoryTestEnv) categoryOf(t *testing.T, transactionID int64) int64 {
	t.Helper()
	all, err := e.transactions.FindByUser(e.userID, 0, 0)
	require.NoError(t, err)
	for _, tx := range all {
		if tx.ID == transactionID {
			require.NotNil(t, tx.CategoryID)
			return *tx.CategoryID
		}
	}
	t.Fatalf("transaction %d not found", transactionID)
	return 0
}

func TestDeleteCategoryReassignsTransactions(t *testing.T) {
	e := newCategoryTestEnv(t)

	mine := &models.Category{UserID: &e.userID, Name: "Hobbies", Color: "#123456", Icon: "toys"}
	require.NoError(t, e.categories.Create(mine))
	tx := e.seedTransaction(t, "Model Trains", mine.ID)

	rec := httptest.NewRecorder()
	e.handler.HandleDeleteCategory(rec, e.deleteRequest(strconv.FormatInt(mine.ID, 10)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["reassignedTransactions"])

	assert.Equal(t, e.other.ID, e.categoryOf(t, tx.ID))
	_, err := e.categories.FindByID(mine.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteForeignCategoryLeavesTransactionsUntouched(t *testing.T) {
	e := newCategoryTestEnv(t)

	sharedID := e.seedSystemCategory(t, "Shared Expenses")
	tx := e.seedTransaction(t, "Office Lunch", sharedID)

	rec := httptest.NewRecorder()
	e.handler.HandleDeleteCategory(rec, e.deleteRequest(strconv.FormatInt(sharedID, 10)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The rejected delete must not have moved anything to Other.
	assert.Equal(t, sharedID, e.categoryOf(t, tx.ID))
}

func TestDeleteOtherCategoryRejected(t *testing.T) {
	e := newCategoryTestEnv(t)

	tx := e.seedTransaction(t, "Mystery Charge", e.other.ID)

	rec := httptest.NewRecorder()
	e.handler.HandleDeleteCategory(rec, e.deleteRequest(strconv.FormatInt(e.other.ID, 10)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, e.other.ID, e.categoryOf(t, tx.ID))
}
