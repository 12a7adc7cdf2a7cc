package generic

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWellFormedFile(t *testing.T) {
	input := strings.Join([]string{
		"Date,Amount,Description,PaymentMethod",
		"2024-01-05,-12.50,Coffee Shop,card",
		"2024-01-31,2500.00,January Salary,transfer",
	}, "\n")

	candidates, rowErrors, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, candidates, 2)

	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), candidates[0].Date)
	assert.Equal(t, int64(-1250), candidates[0].Amount)
	assert.Equal(t, "Coffee Shop", candidates[0].Description)
	assert.Equal(t, "card", candidates[0].PaymentMethod)

	assert.Equal(t, int64(250000), candidates[1].Amount)
	assert.Equal(t, "transfer", candidates[1].PaymentMethod)
}

func TestParseColumnsInAnyOrder(t *testing.T) {
	input := strings.Join([]string{
		"Description,Date,Amount",
		"Groceries,2024-02-01,-54.30",
	}, "\n")

	candidates, rowErrors, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(-5430), candidates[0].Amount)
	assert.Equal(t, "other", candidates[0].PaymentMethod, "missing payment method defaults")
}

func TestParseReportsRowErrorsAndKeepsGoing(t *testing.T) {
	input := strings.Join([]string{
		"Date,Amount,Description",
		"2024-01-05,-12.50,Coffee Shop",
		"05/01/2024,-9.99,Bad Date Row",
		"2024-01-06,not-a-number,Bad Amount Row",
		"2024-01-07,-1.00,",
		"2024-01-08,-3.25,Bakery",
	}, "\n")

	candidates, rowErrors, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
	require.Len(t, rowErrors, 3)

	// Line numbers count the header as line 1.
	assert.Equal(t, 3, rowErrors[0].Line)
	assert.Equal(t, 4, rowErrors[1].Line)
	assert.Equal(t, 5, rowErrors[2].Line)
}

func TestParseMissingRequiredColumns(t *testing.T) {
	input := "When,HowMuch,What\n2024-01-05,-12.50,Coffee\n"
	_, _, err := NewParser().Parse(strings.NewReader(input))
	assert.Error(t, err)
}

func TestParseEmptyFile(t *testing.T) {
	_, _, err := NewParser().Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseStripsUnprintableCharacters(t *testing.T) {
	input := "Date,Amount,Description\n2024-01-05,-12.50,Coffee\x00 Shop\n"

	candidates, rowErrors, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Coffee Shop", candidates[0].Description)
}
