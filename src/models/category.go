package models

// Category groups transactions. A nil UserID marks a system category shared
// by every account. Exactly one category per account scope has IsOther set;
// it is the fallback sink for unmatched transactions and always sorts last.
type Category struct {
	ID           int64  `json:"id"`
	UserID       *int64 `json:"user_id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"display_order"`
	IsDefault    bool   `json:"is_default"`
	IsOther      bool   `json:"is_other"`

	// Derived on list responses, not stored.
	HasRules        bool `json:"has_rules"`
	HasTransactions bool `json:"has_transactions"`
}

// VisibleTo reports whether the category is reachable from the given user
// scope (system categories are reachable by everyone).
func (c Category) VisibleTo(userID int64) bool {
	return c.UserID == nil || *c.UserID == userID
}
