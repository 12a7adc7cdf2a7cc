package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/ledgerly/backend/src/models"
)

const fallbackID = int64(99)

func rule(id int64, keyword string, categoryID int64, priority int) models.Rule {
	return models.Rule{ID: id, Keyword: keyword, CategoryID: categoryID, Priority: priority}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	rules := []models.Rule{
		rule(1, "amazon", 10, 50),
		rule(2, "ama", 20, 10),
	}
	SortRules(rules)

	// "ama" has the better priority, so it claims amazon purchases too.
	categoryID, matched := Categorize(rules, "AMAZON MARKETPLACE", fallbackID)
	assert.True(t, matched)
	assert.Equal(t, int64(20), categoryID)
}

func TestCategorizeKeywordTiebreak(t *testing.T) {
	rules := []models.Rule{
		rule(1, "store", 10, 100),
		rule(2, "shop", 20, 100),
	}
	SortRules(rules)

	// Same priority: "shop" sorts before "store", and both match.
	categoryID, matched := Categorize(rules, "shopstore outlet", fallbackID)
	assert.True(t, matched)
	assert.Equal(t, int64(20), categoryID)
}

func TestCategorizeCaseInsensitive(t *testing.T) {
	rules := []models.Rule{rule(1, "NetFlix", 10, 100)}
	SortRules(rules)

	categoryID, matched := Categorize(rules, "netflix.com subscription", fallbackID)
	assert.True(t, matched)
	assert.Equal(t, int64(10), categoryID)
}

func TestCategorizeFallback(t *testing.T) {
	rules := []models.Rule{rule(1, "grocer", 10, 100)}
	SortRules(rules)

	categoryID, matched := Categorize(rules, "unknown merchant", fallbackID)
	assert.False(t, matched)
	assert.Equal(t, fallbackID, categoryID)
}

func TestCategorizeEmptyRuleSet(t *testing.T) {
	categoryID, matched := Categorize(nil, "anything", fallbackID)
	assert.False(t, matched)
	assert.Equal(t, fallbackID, categoryID)
}

func TestSortRulesDeterministic(t *testing.T) {
	rules := []models.Rule{
		rule(1, "zeta", 1, 100),
		rule(2, "alpha", 2, 100),
		rule(3, "beta", 3, 5),
	}
	SortRules(rules)

	assert.Equal(t, "beta", rules[0].Keyword)
	assert.Equal(t, "alpha", rules[1].Keyword)
	assert.Equal(t, "zeta", rules[2].Keyword)
}
