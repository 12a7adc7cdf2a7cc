package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerly/backend/src/models"
)

func candidateOn(date time.Time, amount int64, description string) models.CandidateTransaction {
	return models.CandidateTransaction{
		Date:          date,
		Amount:        amount,
		Description:   description,
		PaymentMethod: "card",
	}
}

func TestInsertBatchAndFindByUser(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice")
	_, other := seedDefaultCategories(t, db, userID)
	transactions := NewTransactionStore(db)

	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	items := []NewTransaction{
		{Candidate: candidateOn(jan5, -1250, "Coffee Shop"), CategoryID: other.ID},
		{Candidate: candidateOn(feb1, 250000, "Salary"), CategoryID: other.ID},
	}

	inserted, duplicates, err := transactions.InsertBatch(userID, 0, items)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 0, duplicates)

	all, err := transactions.FindByUser(userID, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Salary", all[0].Description, "newest first")
	assert.Equal(t, "Other", all[0].CategoryName)

	janOnly, err := transactions.FindByUser(userID, 2024, 1)
	require.NoError(t, err)
	require.Len(t, janOnly, 1)
	assert.Equal(t, "Coffee Shop", janOnly[0].Description)

	year, err := transactions.FindByUser(userID, 2024, 0)
	require.NoError(t, err)
	assert.Len(t, year, 2)
}

func TestInsertBatchUniqueBackstop(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice")
	_, other := seedDefaultCategories(t, db, userID)
	transactions := NewTransactionStore(db)

	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	item := NewTransaction{Candidate: candidateOn(jan5, -1250, "Coffee Shop"), CategoryID: other.ID}

	inserted, duplicates, err := transactions.InsertBatch(userID, 0, []NewTransaction{item})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Same row again: the UNIQUE(user_id, dedup_hash) constraint reclassifies
	// it as a duplicate instead of failing the batch.
	inserted, duplicates, err = transactions.InsertBatch(userID, 0, []NewTransaction{item})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 1, duplicates)

	// A case-folded description is the same identity.
	folded := NewTransaction{Candidate: candidateOn(jan5, -1250, "  COFFEE SHOP "), CategoryID: other.ID}
	inserted, duplicates, err = transactions.InsertBatch(userID, 0, []NewTransaction{folded})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 1, duplicates)
}

func TestInsertBatchRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	userID := seedUser(t, db, "alice")
	_, other := seedDefaultCategories(t, db, userID)
	transactions := NewTransactionStore(db)

	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	items := []NewTransaction{
		{Candidate: candidateOn(jan5, -1250, "Coffee Shop"), CategoryID: other.ID},
		// Dangling category reference: fails mid-batch, and not as a
		// duplicate, so the whole batch must roll back.
		{Candidate: candidateOn(jan5, -5000, "Poisoned Row"), CategoryID: 99999},
		{Candidate: candidateOn(jan5, 250000, "Salary"), CategoryID: other.ID},
	}

	inserted, duplicates, err := transactions.InsertBatch(userID, 0, items)
	require.Error(t, err)
	assert.Zero(t, inserted)
	assert.Zero(t, duplicates)

	all, err := transactions.FindByUser(userID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, all, "a failed batch persists nothing")
}

func TestInsertBatchScopedPerUser(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	_, aliceOther := seedDefaultCategories(t, db, alice)
	bobCategories := NewCategoryStore(db)
	require.NoError(t, bobCategories.CreateDefaultSet(bob))
	bobOther, err := bobCategories.FindOther(bob)
	require.NoError(t, err)

	transactions := NewTransactionStore(db)
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	inserted, _, err := transactions.InsertBatch(alice, 0, []NewTransaction{
		{Candidate: candidateOn(jan5, -1250, "Coffee Shop"), CategoryID: aliceOther.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Identical row for a different user is not a duplicate.
	inserted, duplicates, err := transactions.InsertBatch(bob, 0, []NewTransaction{
		{Candidate: candidateOn(jan5, -1250, "Coffee Shop"), CategoryID: bobOther.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 0, duplicates)
}

func TestInsertOneDuplicate(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice")
	_, other := seedDefaultCategories(t, db, userID)
	transactions := NewTransactionStore(db)

	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	item := NewTransaction{Candidate: candidateOn(jan5, -1250, "Coffee Shop"), CategoryID: other.ID}

	created, err := transactions.InsertOne(userID, item)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", created.Date)
	assert.Equal(t, "Other", created.CategoryName)

	_, err = transactions.InsertOne(userID, item)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestApplyCategoryUpdates(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice")
	categories, other := seedDefaultCategories(t, db, userID)
	transactions := NewTransactionStore(db)

	all, err := categories.FindForUser(userID)
	require.NoError(t, err)
	var groceries models.Category
	for _, c := range all {
		if c.Name == "Groceries" {
			groceries = c
		}
	}
	require.NotZero(t, groceries.ID)

	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	a, err := transactions.InsertOne(userID, NewTransaction{Candidate: candidateOn(jan5, -100, "Store A"), CategoryID: other.ID})
	require.NoError(t, err)
	b, err := transactions.InsertOne(userID, NewTransaction{Candidate: candidateOn(jan5, -200, "Store B"), CategoryID: other.ID})
	require.NoError(t, err)

	updated, err := transactions.ApplyCategoryUpdates(userID, []CategoryUpdate{
		{CategoryID: groceries.ID, TransactionIDs: []int64{a.ID, b.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	fallback, err := transactions.FindFallback(userID, other.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, fallback)
}

func TestUpdateCategoryScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	_, other := seedDefaultCategories(t, db, alice)
	transactions := NewTransactionStore(db)

	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	created, err := transactions.InsertOne(alice, NewTransaction{Candidate: candidateOn(jan5, -100, "Store A"), CategoryID: other.ID})
	require.NoError(t, err)

	err = transactions.UpdateCategory(bob, created.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
