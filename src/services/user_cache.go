package services

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/ledgerly/backend/src/models"
	"github.com/username/ledgerly/backend/src/processors"
	"github.com/username/ledgerly/backend/src/store"
)

const (
	ckApplicableRules = "rules_user_%d"
	ckAvailableYears  = "years_user_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// UserCache holds per-user derived data that is cheap to rebuild but read on
// every import. Writes to rules or uploads must invalidate it.
type UserCache struct {
	c *cache.Cache
}

func NewUserCache() *UserCache {
	return &UserCache{c: cache.New(DefaultCacheExpiration, CacheCleanupInterval)}
}

// ApplicableRules returns the user's matching rules in deterministic match
// order, loading and sorting them on a cache miss.
func (u *UserCache) ApplicableRules(userID int64, rules store.RuleStore) ([]models.Rule, error) {
	key := fmt.Sprintf(ckApplicableRules, userID)
	if cached, found := u.c.Get(key); found {
		return cached.([]models.Rule), nil
	}

	loaded, err := rules.FindApplicable(userID)
	if err != nil {
		return nil, err
	}
	processors.SortRules(loaded)
	u.c.Set(key, loaded, cache.DefaultExpiration)
	return loaded, nil
}

func (u *UserCache) GetYears(userID int64) ([]int, bool) {
	if cached, found := u.c.Get(fmt.Sprintf(ckAvailableYears, userID)); found {
		return cached.([]int), true
	}
	return nil, false
}

func (u *UserCache) SetYears(userID int64, years []int) {
	u.c.Set(fmt.Sprintf(ckAvailableYears, userID), years, cache.DefaultExpiration)
}

// InvalidateUser clears all cached data for a user, forcing a rebuild on the
// next request.
func (u *UserCache) InvalidateUser(userID int64) {
	u.c.Delete(fmt.Sprintf(ckApplicableRules, userID))
	u.c.Delete(fmt.Sprintf(ckAvailableYears, userID))
}
