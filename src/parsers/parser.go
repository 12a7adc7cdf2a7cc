// Package parsers turns bank CSV exports into normalized transaction
// candidates. Each supported source gets its own subpackage; the shared
// contract is that malformed rows become RowErrors, never a failed parse.
package parsers

import (
	"io"

	"github.com/username/ledgerly/backend/src/models"
)

type Parser interface {
	// Parse reads the whole file. The error return is reserved for files
	// that are not usable CSV at all; row-level problems are reported in
	// the RowError slice and the remaining rows are still returned.
	Parse(file io.Reader) ([]models.CandidateTransaction, []models.RowError, error)
}
