package models

// Rule maps a description keyword to a category. A nil UserID denotes a
// system rule visible to every account. Priority is a single flat ordering
// space shared by system and user rules; only the numeric value decides
// precedence, never ownership.
type Rule struct {
	ID           int64  `json:"id"`
	UserID       *int64 `json:"user_id"`
	Keyword      string `json:"keyword"`
	CategoryID   int64  `json:"category_id"`
	Priority     int    `json:"priority"`
	CategoryName string `json:"category_name,omitempty"`
}
