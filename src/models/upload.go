package models

import "time"

// Upload status lifecycle. Transitions are monotonic: PENDING → PROCESSING →
// COMPLETED or FAILED. A record is never reused for a retried upload.
const (
	UploadStatusPending    = "PENDING"
	UploadStatusProcessing = "PROCESSING"
	UploadStatusCompleted  = "COMPLETED"
	UploadStatusFailed     = "FAILED"
)

// CsvUpload is the audit record for one import. The raw file content is
// retained for provenance; the filename doubles as the source for the
// "available years" derivation.
type CsvUpload struct {
	ID         int64     `json:"id"`
	UploadRef  string    `json:"upload_ref"` // public UUID reference
	UserID     int64     `json:"user_id"`
	FileName   string    `json:"file_name"`
	RawData    string    `json:"-"`
	RowCount   int       `json:"row_count"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
}
