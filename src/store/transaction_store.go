package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/ledgerly/backend/src/models"
)

type sqliteTransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) TransactionStore {
	return &sqliteTransactionStore{db: db}
}

const transactionColumns = `t.id, t.user_id, t.date, t.description, t.amount, t.payment_method,
	t.category_id, COALESCE(c.name, ''), COALESCE(c.color, ''), t.upload_id, t.created_at, t.updated_at`

func scanTransaction(scanner interface{ Scan(...any) error }) (models.Transaction, error) {
	var tx models.Transaction
	err := scanner.Scan(
		&tx.ID, &tx.UserID, &tx.Date, &tx.Description, &tx.Amount, &tx.PaymentMethod,
		&tx.CategoryID, &tx.CategoryName, &tx.CategoryColor, &tx.UploadID, &tx.CreatedAt, &tx.UpdatedAt,
	)
	return tx, err
}

// dateRangeClause returns a SQL fragment and args restricting t.date to the
// given year/month. Dates are stored as ISO strings so lexical comparison is
// chronological.
func dateRangeClause(year, month int) (string, []any) {
	if year == 0 {
		return "", nil
	}
	if month >= 1 && month <= 12 {
		from := fmt.Sprintf("%04d-%02d-01", year, month)
		toYear, toMonth := year, month+1
		if toMonth > 12 {
			toYear, toMonth = year+1, 1
		}
		to := fmt.Sprintf("%04d-%02d-01", toYear, toMonth)
		return " AND t.date >= ? AND t.date < ?", []any{from, to}
	}
	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-01-01", year+1)
	return " AND t.date >= ? AND t.date < ?", []any{from, to}
}

func (s *sqliteTransactionStore) FindByUser(userID int64, year, month int) ([]models.Transaction, error) {
	query := `
	SELECT ` + transactionColumns + `
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id
	WHERE t.user_id = ?`
	args := []any{userID}

	clause, clauseArgs := dateRangeClause(year, month)
	query += clause
	args = append(args, clauseArgs...)
	query += " ORDER BY t.date DESC, t.id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction row for userID %d: %w", userID, err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating over transaction rows for userID %d: %w", userID, err)
	}
	return transactions, nil
}

func (s *sqliteTransactionStore) FindDedupHashes(userID int64) (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT dedup_hash FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying dedup hashes for userID %d: %w", userID, err)
	}
	defer rows.Close()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scanning dedup hash for userID %d: %w", userID, err)
		}
		hashes[h] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating over dedup hashes for userID %d: %w", userID, err)
	}
	return hashes, nil
}

func (s *sqliteTransactionStore) InsertBatch(userID, uploadID int64, items []NewTransaction) (int, int, error) {
	if len(items) == 0 {
		return 0, 0, nil
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("beginning batch insert: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
	INSERT INTO transactions (user_id, date, description, amount, payment_method, category_id, upload_id, dedup_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing batch insert: %w", err)
	}
	defer stmt.Close()

	var uploadIDArg any
	if uploadID != 0 {
		uploadIDArg = uploadID
	}

	inserted, duplicates := 0, 0
	for _, item := range items {
		c := item.Candidate
		_, err := stmt.Exec(userID, c.Date.Format(models.DateFormat), c.Description, c.Amount,
			c.PaymentMethod, item.CategoryID, uploadIDArg, c.DedupHash())
		if err != nil {
			// The UNIQUE(user_id, dedup_hash) backstop fired: a
			// concurrent import won the race for this row.
			if isUniqueViolation(err) {
				duplicates++
				continue
			}
			return 0, 0, fmt.Errorf("inserting transaction (line for %q): %w", c.Description, err)
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing batch insert: %w", err)
	}
	return inserted, duplicates, nil
}

func (s *sqliteTransactionStore) InsertOne(userID int64, item NewTransaction) (*models.Transaction, error) {
	c := item.Candidate
	res, err := s.db.Exec(`
	INSERT INTO transactions (user_id, date, description, amount, payment_method, category_id, dedup_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, c.Date.Format(models.DateFormat), c.Description, c.Amount,
		c.PaymentMethod, item.CategoryID, c.DedupHash())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`
	SELECT `+transactionColumns+`
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id
	WHERE t.id = ?`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("reading back inserted transaction %d: %w", id, err)
	}
	return &tx, nil
}

func (s *sqliteTransactionStore) UpdateCategory(userID, transactionID, categoryID int64) error {
	res, err := s.db.Exec(`
	UPDATE transactions SET category_id = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`, categoryID, transactionID, userID)
	if err != nil {
		return fmt.Errorf("updating category for transaction %d: %w", transactionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteTransactionStore) FindFallback(userID, fallbackCategoryID int64, year, month int) ([]models.Transaction, error) {
	query := `
	SELECT ` + transactionColumns + `
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id
	WHERE t.user_id = ? AND (t.category_id IS NULL OR t.category_id = ?)`
	args := []any{userID, fallbackCategoryID}

	clause, clauseArgs := dateRangeClause(year, month)
	query += clause
	args = append(args, clauseArgs...)
	query += " ORDER BY t.date ASC, t.id ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fallback transactions for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning fallback transaction for userID %d: %w", userID, err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating over fallback transactions for userID %d: %w", userID, err)
	}
	return transactions, nil
}

func (s *sqliteTransactionStore) ApplyCategoryUpdates(userID int64, updates []CategoryUpdate) (int, error) {
	total := 0
	if len(updates) == 0 {
		return 0, nil
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning category updates: %w", err)
	}
	defer dbTx.Rollback()

	for _, update := range updates {
		if len(update.TransactionIDs) == 0 {
			continue
		}
		placeholders := strings.Repeat("?,", len(update.TransactionIDs))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, 0, len(update.TransactionIDs)+2)
		args = append(args, update.CategoryID, userID)
		for _, id := range update.TransactionIDs {
			args = append(args, id)
		}
		res, err := dbTx.Exec(`
		UPDATE transactions SET category_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND id IN (`+placeholders+`)`, args...)
		if err != nil {
			return 0, fmt.Errorf("applying category update: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += int(affected)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("committing category updates: %w", err)
	}
	return total, nil
}

func (s *sqliteTransactionStore) ReassignCategory(userID, fromCategoryID, toCategoryID int64) (int64, error) {
	res, err := s.db.Exec(`
	UPDATE transactions SET category_id = ?, updated_at = CURRENT_TIMESTAMP
	WHERE user_id = ? AND category_id = ?`, toCategoryID, userID, fromCategoryID)
	if err != nil {
		return 0, fmt.Errorf("reassigning category %d: %w", fromCategoryID, err)
	}
	return res.RowsAffected()
}

func (s *sqliteTransactionStore) DeleteAllForUser(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting transactions for userID %d: %w", userID, err)
	}
	return nil
}

func (s *sqliteTransactionStore) UsedCategoryIDs(userID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(`
	SELECT DISTINCT category_id FROM transactions
	WHERE user_id = ? AND category_id IS NOT NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying used categories for userID %d: %w", userID, err)
	}
	defer rows.Close()

	used := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		used[id] = true
	}
	return used, rows.Err()
}
