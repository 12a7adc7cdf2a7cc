package store

import (
	"database/sql"
	"fmt"

	"github.com/username/ledgerly/backend/src/models"
)

type sqliteRuleStore struct {
	db *sql.DB
}

func NewRuleStore(db *sql.DB) RuleStore {
	return &sqliteRuleStore{db: db}
}

const ruleColumns = `r.id, r.user_id, r.keyword, r.category_id, r.priority, COALESCE(c.name, '')`

func scanRule(scanner interface{ Scan(...any) error }) (models.Rule, error) {
	var r models.Rule
	err := scanner.Scan(&r.ID, &r.UserID, &r.Keyword, &r.CategoryID, &r.Priority, &r.CategoryName)
	return r, err
}

func (s *sqliteRuleStore) FindApplicable(userID int64) ([]models.Rule, error) {
	rows, err := s.db.Query(`
	SELECT `+ruleColumns+`
	FROM rules r
	LEFT JOIN categories c ON c.id = r.category_id
	WHERE r.user_id = ? OR r.user_id IS NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying rules for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule for userID %d: %w", userID, err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *sqliteRuleStore) FindByID(id int64) (*models.Rule, error) {
	row := s.db.QueryRow(`
	SELECT `+ruleColumns+`
	FROM rules r
	LEFT JOIN categories c ON c.id = r.category_id
	WHERE r.id = ?`, id)
	r, err := scanRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying rule %d: %w", id, err)
	}
	return &r, nil
}

func (s *sqliteRuleStore) Create(r *models.Rule) error {
	res, err := s.db.Exec(`
	INSERT INTO rules (user_id, keyword, category_id, priority)
	VALUES (?, ?, ?, ?)`, r.UserID, r.Keyword, r.CategoryID, r.Priority)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting rule %q: %w", r.Keyword, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func (s *sqliteRuleStore) Update(userID int64, r *models.Rule) error {
	res, err := s.db.Exec(`
	UPDATE rules SET keyword = ?, category_id = ?, priority = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`, r.Keyword, r.CategoryID, r.Priority, r.ID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("updating rule %d: %w", r.ID, err)
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

func (s *sqliteRuleStore) Delete(userID, id int64) error {
	res, err := s.db.Exec(`DELETE FROM rules WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting rule %d: %w", id, err)
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

func (s *sqliteRuleStore) CategoryIDsWithRules(userID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(`
	SELECT DISTINCT category_id FROM rules
	WHERE user_id = ? OR user_id IS NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying rule categories for userID %d: %w", userID, err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
