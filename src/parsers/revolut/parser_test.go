package revolut

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance"

func TestParseCompletedRows(t *testing.T) {
	input := strings.Join([]string{
		header,
		"CARD_PAYMENT,Current,2024-01-04 09:12:33,2024-01-05 10:00:00,Coffee Shop,-12.50,0.00,EUR,COMPLETED,987.65",
		"TRANSFER,Current,2024-01-31 08:00:00,2024-01-31 08:00:05,January Salary,2500.00,0.00,EUR,COMPLETED,3487.65",
	}, "\n")

	candidates, rowErrors, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, candidates, 2)

	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), candidates[0].Date)
	assert.Equal(t, int64(-1250), candidates[0].Amount)
	assert.Equal(t, "Coffee Shop", candidates[0].Description)
	assert.Equal(t, "current", candidates[0].PaymentMethod)
}

func TestParseNonCompletedRowsCountAsSkipped(t *testing.T) {
	input := strings.Join([]string{
		header,
		"CARD_PAYMENT,Current,2024-01-04 09:12:33,,Pending Payment,-5.00,0.00,EUR,PENDING,987.65",
		"CARD_PAYMENT,Current,2024-01-04 09:12:33,2024-01-04 10:00:00,Reverted Payment,-5.00,0.00,EUR,REVERTED,987.65",
		"CARD_PAYMENT,Current,2024-01-04 09:12:33,2024-01-05 10:00:00,Real Payment,-5.00,0.00,EUR,COMPLETED,982.65",
	}, "\n")

	candidates, rowErrors, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Real Payment", candidates[0].Description)

	// Unsettled rows are skipped, not dropped: every data row in the file
	// lands in exactly one of the two buckets.
	require.Len(t, rowErrors, 2)
	assert.Equal(t, 3, len(candidates)+len(rowErrors))
	assert.Equal(t, 2, rowErrors[0].Line)
	assert.Contains(t, rowErrors[0].Reason, "not settled")
	assert.Equal(t, 3, rowErrors[1].Line)
}

func TestParseMissingColumns(t *testing.T) {
	input := "Type,Product,Amount\nCARD_PAYMENT,Current,-5.00\n"
	_, _, err := NewParser().Parse(strings.NewReader(input))
	assert.Error(t, err)
}

func TestParseBadRowBecomesRowError(t *testing.T) {
	input := strings.Join([]string{
		header,
		"CARD_PAYMENT,Current,2024-01-04 09:12:33,not-a-date,Broken Row,-5.00,0.00,EUR,COMPLETED,987.65",
	}, "\n")

	candidates, rowErrors, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, candidates)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, 2, rowErrors[0].Line)
}
