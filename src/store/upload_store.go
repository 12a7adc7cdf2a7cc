package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/username/ledgerly/backend/src/models"
)

type sqliteUploadStore struct {
	db *sql.DB
}

func NewUploadStore(db *sql.DB) UploadStore {
	return &sqliteUploadStore{db: db}
}

func (s *sqliteUploadStore) Create(u *models.CsvUpload) error {
	if u.UploadRef == "" {
		u.UploadRef = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = models.UploadStatusPending
	}

	res, err := s.db.Exec(`
	INSERT INTO csv_uploads (upload_ref, user_id, file_name, raw_data, row_count, status)
	VALUES (?, ?, ?, ?, ?, ?)`,
		u.UploadRef, u.UserID, u.FileName, u.RawData, u.RowCount, u.Status)
	if err != nil {
		return fmt.Errorf("inserting upload record for %q: %w", u.FileName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (s *sqliteUploadStore) MarkStatus(id int64, status string) error {
	res, err := s.db.Exec(`UPDATE csv_uploads SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("marking upload %d as %s: %w", id, status, err)
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

func (s *sqliteUploadStore) MarkProcessing(id int64, rowCount int) error {
	res, err := s.db.Exec(`
	UPDATE csv_uploads SET status = ?, row_count = ? WHERE id = ?`,
		models.UploadStatusProcessing, rowCount, id)
	if err != nil {
		return fmt.Errorf("marking upload %d as processing: %w", id, err)
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

func (s *sqliteUploadStore) Complete(id int64, rowCount int) error {
	res, err := s.db.Exec(`
	UPDATE csv_uploads SET status = ?, row_count = ? WHERE id = ?`,
		models.UploadStatusCompleted, rowCount, id)
	if err != nil {
		return fmt.Errorf("completing upload %d: %w", id, err)
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

func (s *sqliteUploadStore) FindByUser(userID int64) ([]models.CsvUpload, error) {
	rows, err := s.db.Query(`
	SELECT id, upload_ref, user_id, file_name, row_count, status, uploaded_at
	FROM csv_uploads
	WHERE user_id = ?
	ORDER BY uploaded_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying uploads for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var uploads []models.CsvUpload
	for rows.Next() {
		var u models.CsvUpload
		err := rows.Scan(&u.ID, &u.UploadRef, &u.UserID, &u.FileName, &u.RowCount, &u.Status, &u.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning upload for userID %d: %w", userID, err)
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

func (s *sqliteUploadStore) FileNames(userID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT file_name FROM csv_uploads WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying upload filenames for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
