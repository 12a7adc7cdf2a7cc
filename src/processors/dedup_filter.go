// Package processors holds the pure pipeline stages between parsing and
// persistence: duplicate filtering and rule-based categorization. Nothing
// here touches the database.
package processors

import (
	"github.com/username/ledgerly/backend/src/models"
)

// FilterDuplicates splits candidates into rows to import and rows already
// known. A row duplicates either a persisted transaction (its hash is in
// existing) or an earlier row of the same batch; the first occurrence within
// a batch wins.
func FilterDuplicates(existing map[string]struct{}, candidates []models.CandidateTransaction) (toImport, duplicates []models.CandidateTransaction) {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for h := range existing {
		seen[h] = struct{}{}
	}

	for _, c := range candidates {
		h := c.DedupHash()
		if _, ok := seen[h]; ok {
			duplicates = append(duplicates, c)
			continue
		}
		seen[h] = struct{}{}
		toImport = append(toImport, c)
	}
	return toImport, duplicates
}
