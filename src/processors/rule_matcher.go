package processors

import (
	"sort"
	"strings"

	"github.com/username/ledgerly/backend/src/models"
)

// SortRules orders rules by ascending priority, breaking ties by keyword.
// The order is total, so matching is deterministic for any rule set.
func SortRules(rules []models.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].Keyword < rules[j].Keyword
	})
}

// Categorize returns the category for a description: the first rule (in
// SortRules order) whose keyword appears in the case-folded description, or
// fallbackCategoryID when no rule matches. Rules must already be sorted.
func Categorize(rules []models.Rule, description string, fallbackCategoryID int64) (categoryID int64, matched bool) {
	normalized := models.NormalizeDescription(description)
	for _, r := range rules {
		if strings.Contains(normalized, strings.ToLower(r.Keyword)) {
			return r.CategoryID, true
		}
	}
	return fallbackCategoryID, false
}
