// Package revolut parses Revolut account statement exports. Only COMPLETED
// rows become candidates; pending and reverted entries have no settled
// amount and are reported as skipped rows so the file's row count stays
// accountable.
package revolut

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

const dateLayout = "2006-01-02 15:04:05"

type RevolutParser struct{}

func NewParser() *RevolutParser {
	return &RevolutParser{}
}

func (p *RevolutParser) Parse(file io.Reader) ([]models.CandidateTransaction, []models.RowError, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"completed date", "description", "amount", "state"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, fmt.Errorf("revolut CSV header is missing the %q column", required)
		}
	}

	field := func(record []string, name string) string {
		i := columns[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	var candidates []models.CandidateTransaction
	var rowErrors []models.RowError
	line := 1
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

		if state := strings.TrimSpace(field(record, "state")); !strings.EqualFold(state, "COMPLETED") {
			rowErrors = append(rowErrors, models.RowError{Line: line, Reason: fmt.Sprintf("row not settled (state %q)", state)})
			continue
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(field(record, "completed date")))
		if err != nil {
			rowErrors = append(rowErrors, models.RowError{Line: line, Reason: fmt.Sprintf("invalid completed date %q", field(record, "completed date"))})
			continue
		}

		amount, err := utils.ParseAmount(field(record, "amount"))
		if err != nil {
			rowErrors = append(rowErrors, models.RowError{Line: line, Reason: err.Error()})
			continue
		}

		description := strings.TrimSpace(validation.StripUnprintable(field(record, "description")))
		if description == "" {
			rowErrors = append(rowErrors, models.RowError{Line: line, Reason: "empty description"})
			continue
		}

		paymentMethod := "card"
		if product := strings.TrimSpace(field(record, "product")); product != "" {
			paymentMethod = strings.ToLower(product)
		}

		candidates = append(candidates, models.CandidateTransaction{
			Date:          date,
			Amount:        amount,
			Description:   description,
			PaymentMethod: paymentMethod,
		})
	}

	return candidates, rowErrors, nil
}
