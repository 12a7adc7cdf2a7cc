package services

import (
	"errors"
	"io"

	"github.com/username/ledgerly/backend/src/models"
)

var (
	// ErrParsingFailed means the file was not usable CSV at all.
	ErrParsingFailed = errors.New("file parsing failed")
	// ErrNoParseableRows means every data row was malformed.
	ErrNoParseableRows = errors.New("no parseable rows in file")
	// ErrNoFallbackCategory means the Other category is missing, which is a
	// deployment problem, not a user error.
	ErrNoFallbackCategory = errors.New("no fallback category configured")
	// ErrPersistenceFailed wraps database failures during an import.
	ErrPersistenceFailed = errors.New("failed to persist transactions")
)

// ImportResult summarizes one CSV import. TotalRows always equals
// ImportedRows + SkippedRows + DuplicateRows.
type ImportResult struct {
	UploadRef     string            `json:"uploadRef"`
	FileName      string            `json:"fileName"`
	TotalRows     int               `json:"totalRows"`
	ImportedRows  int               `json:"importedRows"`
	SkippedRows   int               `json:"skippedRows"`
	DuplicateRows int               `json:"duplicateRows"`
	RowErrors     []models.RowError `json:"rowErrors,omitempty"`
}

// Sweep outcome statuses.
const (
	SweepApplied = "applied"
	SweepNoRules = "no_rules"
)

// SweepResult reports a re-categorization run. Status is SweepNoRules when
// the user has no visible rules, in which case nothing was touched.
type SweepResult struct {
	UpdatedCount int    `json:"updatedCount"`
	Status       string `json:"status"`
}

// ImportService owns the CSV import pipeline and the upload audit trail.
type ImportService interface {
	// ImportCSV runs parse, dedup, rule matching and batch persistence for
	// one file. The upload record tracks progress and survives failure.
	ImportCSV(fileReader io.Reader, userID int64, fileName, source string) (*ImportResult, error)
	ListUploads(userID int64) ([]models.CsvUpload, error)
	// AvailableYears derives the set of statement years from uploaded
	// filenames.
	AvailableYears(userID int64) ([]int, error)
}

// RecategorizeService re-runs the rule set over fallback transactions.
type RecategorizeService interface {
	Sweep(userID int64, year, month int) (*SweepResult, error)
}
