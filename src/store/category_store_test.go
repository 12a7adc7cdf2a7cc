package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerly/backend/src/models"
)

func TestCreateDefaultSetSeedsExactlyOneOther(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice")
	categories, other := seedDefaultCategories(t, db, userID)

	assert.True(t, other.IsOther)
	assert.Equal(t, "Other", other.Name)

	all, err := categories.FindForUser(userID)
	require.NoError(t, err)
	require.NotEmpty(t, all)

	otherCount := 0
	for _, c := range all {
		if c.IsOther {
			otherCount++
		}
	}
	assert.Equal(t, 1, otherCount)
	assert.True(t, all[len(all)-1].IsOther, "Other sorts last by display order")
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice")
	categories, _ := seedDefaultCategories(t, db, userID)

	c := &models.Category{UserID: &userID, Name: "Groceries", Color: "#fff", Icon: "label"}
	err := categories.Create(c)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateCategorySlotsBeforeOther(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice")
	categories, other := seedDefaultCategories(t, db, userID)

	c := &models.Category{UserID: &userID, Name: "Travel", Color: "#fff", Icon: "flight"}
	require.NoError(t, categories.Create(c))
	assert.Greater(t, c.DisplayOrder, 0)
	assert.Less(t, c.DisplayOrder, other.DisplayOrder)
}

func TestDeleteOtherIsRejected(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice")
	categories, other := seedDefaultCategories(t, db, userID)

	err := categories.Delete(userID, other.ID)
	assert.ErrorIs(t, err, ErrOtherImmutable)

	// Still there.
	_, err = categories.FindOther(userID)
	assert.NoError(t, err)
}

func TestReorderRejectsOtherWholesale(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice")
	categories, other := seedDefaultCategories(t, db, userID)

	custom := &models.Category{UserID: &userID, Name: "Travel", Color: "#fff", Icon: "flight"}
	require.NoError(t, categories.Create(custom))
	originalOrder := custom.DisplayOrder

	err := categories.Reorder(userID, []int64{other.ID, custom.ID})
	assert.ErrorIs(t, err, ErrOtherImmutable)

	// The transaction rolled back, nothing moved.
	reloaded, err := categories.FindByID(custom.ID)
	require.NoError(t, err)
	assert.Equal(t, originalOrder, reloaded.DisplayOrder)
}

func TestReorderRejectsForeignCategories(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	categories, _ := seedDefaultCategories(t, db, alice)

	bobCategory := &models.Category{UserID: &bob, Name: "Travel", Color: "#fff", Icon: "flight"}
	require.NoError(t, categories.Create(bobCategory))

	err := categories.Reorder(alice, []int64{bobCategory.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	categories, _ := seedDefaultCategories(t, db, alice)

	c := &models.Category{UserID: &alice, Name: "Travel", Color: "#fff", Icon: "flight"}
	require.NoError(t, categories.Create(c))

	err := categories.Update(bob, &models.Category{ID: c.ID, Name: "Hijacked", Color: "#000", Icon: "label"})
	assert.ErrorIs(t, err, ErrNotFound)
}
