package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/ledgerly/backend/src/logger"
	"github.com/username/ledgerly/backend/src/models"
	"github.com/username/ledgerly/backend/src/store"
)

type recategorizeServiceImpl struct {
	transactions store.TransactionStore
	categories   store.CategoryStore
	rules        store.RuleStore
	cache        *UserCache
}

func NewRecategorizeService(
	transactions store.TransactionStore,
	categories store.CategoryStore,
	rules store.RuleStore,
	cache *UserCache,
) RecategorizeService {
	return &recategorizeServiceImpl{
		transactions: transactions,
		categories:   categories,
		rules:        rules,
		cache:        cache,
	}
}

// Sweep re-runs the rule set over transactions still in the fallback
// category. Each transaction goes to the highest-priority rule that matches
// it; a transaction matched by an earlier rule is masked from later ones, so
// repeated sweeps over an unchanged rule set are no-ops.
func (s *recategorizeServiceImpl) Sweep(userID int64, year, month int) (*SweepResult, error) {
	startTime := time.Now()
	logger.L.Info("Sweep START", "userID", userID, "year", year, "month", month)

	rules, err := s.cache.ApplicableRules(userID, s.rules)
	if err != nil {
		return nil, fmt.Errorf("loading rules for sweep: %w", err)
	}
	if len(rules) == 0 {
		logger.L.Info("Sweep skipped, no rules", "userID", userID)
		return &SweepResult{UpdatedCount: 0, Status: SweepNoRules}, nil
	}

	other, err := s.categories.FindOther(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoFallbackCategory
		}
		return nil, fmt.Errorf("loading fallback category for sweep: %w", err)
	}

	candidates, err := s.transactions.FindFallback(userID, other.ID, year, month)
	if err != nil {
		return nil, fmt.Errorf("loading fallback transactions for sweep: %w", err)
	}
	if len(candidates) == 0 {
		return &SweepResult{UpdatedCount: 0, Status: SweepApplied}, nil
	}

	updates := buildSweepUpdates(rules, candidates, other.ID)

	updated, err := s.transactions.ApplyCategoryUpdates(userID, updates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.cache.InvalidateUser(userID)

	logger.L.Info("Sweep END", "userID", userID, "updated", updated, "duration", time.Since(startTime))
	return &SweepResult{UpdatedCount: updated, Status: SweepApplied}, nil
}

// buildSweepUpdates walks the rules in match order, claiming transactions as
// it goes. Rules must already be sorted; a transaction claimed by one rule is
// invisible to the rest.
func buildSweepUpdates(rules []models.Rule, candidates []models.Transaction, fallbackCategoryID int64) []store.CategoryUpdate {
	claimed := make(map[int64]bool, len(candidates))
	var updates []store.CategoryUpdate

	for _, rule := range rules {
		keyword := strings.ToLower(rule.Keyword)
		var ids []int64
		for _, tx := range candidates {
			if claimed[tx.ID] {
				continue
			}
			if !strings.Contains(models.NormalizeDescription(tx.Description), keyword) {
				continue
			}
			claimed[tx.ID] = true
			// Re-claiming into the fallback category would be a wasted
			// write; the row is already there.
			if rule.CategoryID == fallbackCategoryID {
				continue
			}
			ids = append(ids, tx.ID)
		}
		if len(ids) > 0 {
			updates = append(updates, store.CategoryUpdate{CategoryID: rule.CategoryID, TransactionIDs: ids})
		}
	}
	return updates
}
