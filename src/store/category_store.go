package store

import (
	"database/sql"
	"fmt"

	"github.com/username/ledgerly/backend/src/models"
)

// otherDisplayOrder keeps the fallback category at the end of every listing.
const otherDisplayOrder = 9999

type sqliteCategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) CategoryStore {
	return &sqliteCategoryStore{db: db}
}

// defaultCategories seeds a fresh account. The Other entry must stay last.
var defaultCategories = []models.Category{
	{Name: "Groceries", Color: "#4caf50", Icon: "shopping_cart", DisplayOrder: 1, IsDefault: true},
	{Name: "Dining", Color: "#ff9800", Icon: "restaurant", DisplayOrder: 2, IsDefault: true},
	{Name: "Transport", Color: "#2196f3", Icon: "directions_bus", DisplayOrder: 3, IsDefault: true},
	{Name: "Utilities", Color: "#9c27b0", Icon: "bolt", DisplayOrder: 4, IsDefault: true},
	{Name: "Entertainment", Color: "#e91e63", Icon: "movie", DisplayOrder: 5, IsDefault: true},
	{Name: "Salary", Color: "#00bcd4", Icon: "payments", DisplayOrder: 6, IsDefault: true},
	{Name: "Other", Color: "#9e9e9e", Icon: "more_horiz", DisplayOrder: otherDisplayOrder, IsDefault: true, IsOther: true},
}

const categoryColumns = `id, user_id, name, color, icon, display_order, is_default, is_other`

func scanCategory(scanner interface{ Scan(...any) error }) (models.Category, error) {
	var c models.Category
	err := scanner.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.DisplayOrder, &c.IsDefault, &c.IsOther)
	return c, err
}

func (s *sqliteCategoryStore) FindOther(userID int64) (*models.Category, error) {
	row := s.db.QueryRow(`
	SELECT `+categoryColumns+` FROM categories
	WHERE is_other = TRUE AND (user_id = ? OR user_id IS NULL)
	ORDER BY user_id IS NULL
	LIMIT 1`, userID)
	c, err := scanCategory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying Other category for userID %d: %w", userID, err)
	}
	return &c, nil
}

func (s *sqliteCategoryStore) FindByID(id int64) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying category %d: %w", id, err)
	}
	return &c, nil
}

func (s *sqliteCategoryStore) FindForUser(userID int64) ([]models.Category, error) {
	rows, err := s.db.Query(`
	SELECT `+categoryColumns+` FROM categories
	WHERE user_id = ? OR user_id IS NULL
	ORDER BY display_order ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying categories for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category for userID %d: %w", userID, err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *sqliteCategoryStore) Create(c *models.Category) error {
	if c.DisplayOrder == 0 {
		// New categories slot in after the existing ones but before Other.
		row := s.db.QueryRow(`
		SELECT COALESCE(MAX(display_order), 0) FROM categories
		WHERE (user_id = ? OR user_id IS NULL) AND is_other = FALSE`, c.UserID)
		var maxOrder int
		if err := row.Scan(&maxOrder); err != nil {
			return fmt.Errorf("querying max display order: %w", err)
		}
		c.DisplayOrder = maxOrder + 1
	}

	res, err := s.db.Exec(`
	INSERT INTO categories (user_id, name, color, icon, display_order, is_default, is_other)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Name, c.Color, c.Icon, c.DisplayOrder, c.IsDefault, c.IsOther)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting category %q: %w", c.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (s *sqliteCategoryStore) Update(userID int64, c *models.Category) error {
	// is_other and display_order are deliberately not updatable here;
	// ordering changes go through Reorder.
	res, err := s.db.Exec(`
	UPDATE categories SET name = ?, color = ?, icon = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`, c.Name, c.Color, c.Icon, c.ID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("updating category %d: %w", c.ID, err)
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

func (s *sqliteCategoryStore) Delete(userID, id int64) error {
	existing, err := s.FindByID(id)
	if err != nil {
		return err
	}
	if existing.IsOther {
		return ErrOtherImmutable
	}
	if existing.UserID == nil || *existing.UserID != userID {
		return ErrNotFound
	}

	res, err := s.db.Exec(`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting category %d: %w", id, err)
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

func (s *sqliteCategoryStore) Reorder(userID int64, orderedIDs []int64) error {
	dbTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning reorder: %w", err)
	}
	defer dbTx.Rollback()

	for position, id := range orderedIDs {
		var isOther bool
		var ownerID *int64
		err := dbTx.QueryRow(`SELECT is_other, user_id FROM categories WHERE id = ?`, id).Scan(&isOther, &ownerID)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("checking category %d during reorder: %w", id, err)
		}
		if isOther {
			return ErrOtherImmutable
		}
		if ownerID == nil || *ownerID != userID {
			return ErrNotFound
		}

		_, err = dbTx.Exec(`
		UPDATE categories SET display_order = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`, position+1, id, userID)
		if err != nil {
			return fmt.Errorf("reordering category %d: %w", id, err)
		}
	}

	return dbTx.Commit()
}

func (s *sqliteCategoryStore) CreateDefaultSet(userID int64) error {
	dbTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning default category seed: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
	INSERT INTO categories (user_id, name, color, icon, display_order, is_default, is_other)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing default category seed: %w", err)
	}
	defer stmt.Close()

	for _, c := range defaultCategories {
		if _, err := stmt.Exec(userID, c.Name, c.Color, c.Icon, c.DisplayOrder, c.IsDefault, c.IsOther); err != nil {
			return fmt.Errorf("seeding default category %q: %w", c.Name, err)
		}
	}

	return dbTx.Commit()
}
