// Package store is the persistence boundary. Implementations translate
// driver-level failures into the typed errors below so callers never inspect
// error message text.
package store

import (
	"errors"

	"github.com/username/ledgerly/backend/src/models"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible
	// to the requesting user scope.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert or update collides with a
	// uniqueness constraint (duplicate name, keyword, or transaction).
	ErrDuplicate = errors.New("store: duplicate")
	// ErrOtherImmutable is returned when a request tries to delete or
	// reorder the Other fallback category.
	ErrOtherImmutable = errors.New("store: the Other category cannot be deleted or reordered")
)

// isUniqueViolation reports whether err is a sqlite uniqueness rejection.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

// NewTransaction pairs a parsed candidate with its resolved category for
// batch insertion.
type NewTransaction struct {
	Candidate  models.CandidateTransaction
	CategoryID int64
}

// CategoryUpdate assigns one category to a set of transaction ids. The
// sweeper builds one per matched rule.
type CategoryUpdate struct {
	CategoryID     int64
	TransactionIDs []int64
}

// TransactionStore owns persisted ledger entries.
type TransactionStore interface {
	// FindByUser lists a user's transactions, newest first. year of 0
	// means no date filter; month of 0 means the whole year.
	FindByUser(userID int64, year, month int) ([]models.Transaction, error)
	// FindDedupHashes returns the dedup hashes of every persisted
	// transaction for the user.
	FindDedupHashes(userID int64) (map[string]struct{}, error)
	// InsertBatch persists all items in one transaction. A row-level
	// uniqueness rejection reclassifies that row as a duplicate; any
	// other failure rolls the whole batch back.
	InsertBatch(userID, uploadID int64, items []NewTransaction) (inserted, duplicates int, err error)
	// InsertOne persists a single manual entry. Returns ErrDuplicate if
	// an identical transaction already exists.
	InsertOne(userID int64, item NewTransaction) (*models.Transaction, error)
	// UpdateCategory is the manual recategorize operation.
	UpdateCategory(userID, transactionID, categoryID int64) error
	// FindFallback lists transactions still in the fallback category
	// (or uncategorized), oldest first.
	FindFallback(userID, fallbackCategoryID int64, year, month int) ([]models.Transaction, error)
	// ApplyCategoryUpdates applies all updates in one transaction and
	// returns the number of rows actually changed.
	ApplyCategoryUpdates(userID int64, updates []CategoryUpdate) (int, error)
	// ReassignCategory moves every transaction from one category to
	// another (used when a category is deleted).
	ReassignCategory(userID, fromCategoryID, toCategoryID int64) (int64, error)
	DeleteAllForUser(userID int64) error
	// UsedCategoryIDs returns the ids of categories referenced by at
	// least one of the user's transactions.
	UsedCategoryIDs(userID int64) (map[int64]bool, error)
}

// CategoryStore owns categories and enforces the Other-category invariants.
type CategoryStore interface {
	// FindOther returns the fallback category for the user scope, or
	// ErrNotFound — callers treat that as a configuration error.
	FindOther(userID int64) (*models.Category, error)
	FindByID(id int64) (*models.Category, error)
	// FindForUser lists system + own categories ordered by display order.
	FindForUser(userID int64) ([]models.Category, error)
	Create(c *models.Category) error
	Update(userID int64, c *models.Category) error
	// Delete refuses to remove the Other category (ErrOtherImmutable).
	Delete(userID, id int64) error
	// Reorder sets display order by position. A request including the
	// Other category is rejected whole (ErrOtherImmutable).
	Reorder(userID int64, orderedIDs []int64) error
	// CreateDefaultSet seeds a new account with the default categories,
	// including exactly one Other fallback.
	CreateDefaultSet(userID int64) error
}

// RuleStore owns keyword rules.
type RuleStore interface {
	// FindApplicable returns the union of the user's rules and all
	// system rules, with category names resolved.
	FindApplicable(userID int64) ([]models.Rule, error)
	FindByID(id int64) (*models.Rule, error)
	Create(r *models.Rule) error
	Update(userID int64, r *models.Rule) error
	Delete(userID, id int64) error
	// CategoryIDsWithRules returns the ids of categories targeted by at
	// least one rule visible to the user.
	CategoryIDsWithRules(userID int64) (map[int64]bool, error)
}

// UploadStore owns the CSV upload audit trail.
type UploadStore interface {
	Create(u *models.CsvUpload) error
	MarkStatus(id int64, status string) error
	// MarkProcessing moves the upload to PROCESSING and records the parsed
	// row count, so a failed import still reports how big the file was.
	MarkProcessing(id int64, rowCount int) error
	// Complete marks the upload COMPLETED and records the final row count.
	Complete(id int64, rowCount int) error
	FindByUser(userID int64) ([]models.CsvUpload, error)
	// FileNames returns all stored upload filenames for the user.
	FileNames(userID int64) ([]string, error)
}
