package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the canonical storage layout for transaction dates.
const DateFormat = "2006-01-02"

// CandidateTransaction is a normalized row produced by a parser.
// It has no identity yet; identity is assigned when a batch is persisted.
type CandidateTransaction struct {
	Date          time.Time `json:"date"`
	Amount        int64     `json:"amount"` // minor currency units, sign preserved from the source file
	Description   string    `json:"description"`
	PaymentMethod string    `json:"payment_method"`
}

// DedupHash derives the identity hash used for duplicate detection.
// Description matching is trimmed and case-folded; date and amount are exact.
func (c CandidateTransaction) DedupHash() string {
	return DedupHash(c.Date, c.Amount, c.Description)
}

// DedupHash hashes the (date, amount, normalized description) identity tuple.
// The same hash backs the UNIQUE(user_id, dedup_hash) constraint, so two
// concurrent imports of overlapping files cannot both insert the same row.
func DedupHash(date time.Time, amount int64, description string) string {
	key := fmt.Sprintf("%s|%d|%s", date.Format(DateFormat), amount, NormalizeDescription(description))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// NormalizeDescription trims and case-folds a description for matching.
func NormalizeDescription(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// Transaction is a persisted ledger entry. Date, amount and description are
// immutable after creation; only the category assignment may change.
type Transaction struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Date          string    `json:"date"` // DateFormat
	Description   string    `json:"description"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	CategoryID    *int64    `json:"category_id"`
	CategoryName  string    `json:"category_name,omitempty"`
	CategoryColor string    `json:"category_color,omitempty"`
	UploadID      *int64    `json:"upload_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RowError describes a single malformed CSV row. Row errors are counted and
// reported, never fatal to the upload.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}
