package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal amount string into minor currency units.
// Accepts "12.34", "-7", "1,50" and "1 234,56" style inputs; rejects
// anything with more than two fractional digits. Floats never touch the
// value, so no rounding surprises.
func ParseAmount(raw string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			// "1,234.56": comma is a thousands separator.
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than two decimal places", raw)
	}
	return shifted.IntPart(), nil
}
