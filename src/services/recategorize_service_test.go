package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerly/backend/src/models"
	"github.com/username/ledgerly/backend/src/store"
)

func newRecategorizeService(e *testEnv) RecategorizeService {
	return NewRecategorizeService(e.transactions, e.categories, e.rules, e.cache)
}

func (e *testEnv) addFallbackTransaction(t *testing.T, day int, description string) *models.Transaction {
	t.Helper()
	candidate := models.CandidateTransaction{
		Date:          time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Amount:        -1000,
		Description:   description,
		PaymentMethod: "card",
	}
	tx, err := e.transactions.InsertOne(e.userID, store.NewTransaction{Candidate: candidate, CategoryID: e.other.ID})
	require.NoError(t, err)
	return tx
}

func TestSweepNoRules(t *testing.T) {
	e := newTestEnv(t)
	e.addFallbackTransaction(t, 5, "Store A Purchase")
	svc := newRecategorizeService(e)

	result, err := svc.Sweep(e.userID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, SweepNoRules, result.Status)
	assert.Equal(t, 0, result.UpdatedCount)
}

func TestSweepAppliesRulesInPriorityOrder(t *testing.T) {
	e := newTestEnv(t)
	groceries := e.categoryByName(t, "Groceries")
	dining := e.categoryByName(t, "Dining")

	e.addFallbackTransaction(t, 5, "Store A Purchase")
	e.addFallbackTransaction(t, 6, "Restaurant Dinner")
	e.addFallbackTransaction(t, 7, "Unmatched Merchant")

	// "store" outranks "store a"; the Store A row must go to groceries,
	// not be seen twice.
	e.addRule(t, "store", groceries.ID, 10)
	e.addRule(t, "restaurant", dining.ID, 100)

	svc := newRecategorizeService(e)
	result, err := svc.Sweep(e.userID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, SweepApplied, result.Status)
	assert.Equal(t, 2, result.UpdatedCount)

	all, err := e.transactions.FindByUser(e.userID, 0, 0)
	require.NoError(t, err)
	byDescription := map[string]string{}
	for _, tx := range all {
		byDescription[tx.Description] = tx.CategoryName
	}
	assert.Equal(t, "Groceries", byDescription["Store A Purchase"])
	assert.Equal(t, "Dining", byDescription["Restaurant Dinner"])
	assert.Equal(t, "Other", byDescription["Unmatched Merchant"])
}

func TestSweepDoesNotTouchManuallyCategorizedRows(t *testing.T) {
	e := newTestEnv(t)
	groceries := e.categoryByName(t, "Groceries")
	dining := e.categoryByName(t, "Dining")

	tx := e.addFallbackTransaction(t, 5, "Store A Purchase")
	// User already filed this one under Dining by hand.
	require.NoError(t, e.transactions.UpdateCategory(e.userID, tx.ID, dining.ID))

	e.addRule(t, "store", groceries.ID, 100)

	svc := newRecategorizeService(e)
	result, err := svc.Sweep(e.userID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.UpdatedCount, "only fallback rows are swept")

	all, err := e.transactions.FindByUser(e.userID, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Dining", all[0].CategoryName)
}

func TestSweepIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	groceries := e.categoryByName(t, "Groceries")
	e.addFallbackTransaction(t, 5, "Store A Purchase")
	e.addRule(t, "store", groceries.ID, 100)

	svc := newRecategorizeService(e)
	first, err := svc.Sweep(e.userID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.UpdatedCount)

	second, err := svc.Sweep(e.userID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, SweepApplied, second.Status)
	assert.Equal(t, 0, second.UpdatedCount, "nothing left in the fallback category")
}

func TestSweepHonorsDateFilter(t *testing.T) {
	e := newTestEnv(t)
	groceries := e.categoryByName(t, "Groceries")
	e.addFallbackTransaction(t, 5, "Store A Purchase")

	candidate := models.CandidateTransaction{
		Date:          time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC),
		Amount:        -1000,
		Description:   "Store B Purchase",
		PaymentMethod: "card",
	}
	_, err := e.transactions.InsertOne(e.userID, store.NewTransaction{Candidate: candidate, CategoryID: e.other.ID})
	require.NoError(t, err)

	e.addRule(t, "store", groceries.ID, 100)

	svc := newRecategorizeService(e)
	result, err := svc.Sweep(e.userID, 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedCount, "the December row is outside the window")
}
