// Package generic parses the documented Ledgerly CSV layout: a header row
// followed by Date, Amount, Description and an optional PaymentMethod column.
package generic

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/username/ledgerly/backend/src/models"
	"github.com/username/ledgerly/backend/src/security/validation"
	"github.com/username/ledgerly/backend/src/utils"
)

type GenericParser struct{}

func NewParser() *GenericParser {
	return &GenericParser{}
}

func (p *GenericParser) Parse(file io.Reader) ([]models.CandidateTransaction, []models.RowError, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns, err := mapHeader(header)
	if err != nil {
		return nil, nil, err
	}

	var candidates []models.CandidateTransaction
	var rowErrors []models.RowError
	line := 1 // header was line 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrors = append(rowErrors, models.RowError{Line: line, Reason: fmt.Sprintf("unreadable CSV row: %v", err)})
			continue
		}

		candidate, reason := buildCandidate(record, columns)
		if reason != "" {
			rowErrors = append(rowErrors, models.RowError{Line: line, Reason: reason})
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, rowErrors, nil
}

type columnIndexes struct {
	date, amount, description, paymentMethod int
}

func mapHeader(header []string) (columnIndexes, error) {
	columns := columnIndexes{date: -1, amount: -1, description: -1, paymentMethod: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			columns.date = i
		case "amount":
			columns.amount = i
		case "description":
			columns.description = i
		case "paymentmethod", "payment_method", "payment method":
			columns.paymentMethod = i
		}
	}
	if columns.date < 0 || columns.amount < 0 || columns.description < 0 {
		return columns, fmt.Errorf("CSV header must contain Date, Amount and Description columns")
	}
	return columns, nil
}

func buildCandidate(record []string, columns columnIndexes) (models.CandidateTransaction, string) {
	var c models.CandidateTransaction

	required := columns.description
	if columns.date > required {
		required = columns.date
	}
	if columns.amount > required {
		required = columns.amount
	}
	if len(record) <= required {
		return c, "row has fewer columns than the header"
	}

	date, err := time.Parse(models.DateFormat, strings.TrimSpace(record[columns.date]))
	if err != nil {
		return c, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", record[columns.date])
	}

	amount, err := utils.ParseAmount(record[columns.amount])
	if err != nil {
		return c, err.Error()
	}

	description := strings.TrimSpace(validation.StripUnprintable(record[columns.description]))
	if description == "" {
		return c, "empty description"
	}

	paymentMethod := "other"
	if columns.paymentMethod >= 0 && columns.paymentMethod < len(record) {
		if pm := strings.TrimSpace(record[columns.paymentMethod]); pm != "" {
			paymentMethod = strings.ToLower(pm)
		}
	}

	c.Date = date
	c.Amount = amount
	c.Description = description
	c.PaymentMethod = paymentMethod
	return c, ""
}
