package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/username/ledgerly/backend/src/models"
)

func candidate(day int, amount int64, description string) models.CandidateTransaction {
	return models.CandidateTransaction{
		Date:        time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Amount:      amount,
		Description: description,
	}
}

func TestFilterDuplicatesAgainstExisting(t *testing.T) {
	known := candidate(5, -1250, "Coffee Shop")
	existing := map[string]struct{}{known.DedupHash(): {}}

	toImport, duplicates := FilterDuplicates(existing, []models.CandidateTransaction{
		known,
		candidate(6, -1250, "Coffee Shop"),
	})

	assert.Len(t, toImport, 1)
	assert.Len(t, duplicates, 1)
	assert.Equal(t, 6, toImport[0].Date.Day())
}

func TestFilterDuplicatesWithinBatch(t *testing.T) {
	toImport, duplicates := FilterDuplicates(nil, []models.CandidateTransaction{
		candidate(5, -1250, "Coffee Shop"),
		candidate(5, -1250, "coffee shop  "), // same identity after normalization
		candidate(5, -1250, "Coffee Shop"),
	})

	assert.Len(t, toImport, 1)
	assert.Len(t, duplicates, 2)
}

func TestFilterDuplicatesIdentityIsExact(t *testing.T) {
	toImport, duplicates := FilterDuplicates(nil, []models.CandidateTransaction{
		candidate(5, -1250, "Coffee Shop"),
		candidate(5, -1251, "Coffee Shop"), // different amount
		candidate(6, -1250, "Coffee Shop"), // different date
	})

	assert.Len(t, toImport, 3)
	assert.Empty(t, duplicates)
}
