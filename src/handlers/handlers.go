// Package handlers holds the HTTP surface. Each resource gets its own
// handler struct; shared request plumbing lives here.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/username/ledgerly/backend/src/utils"
)

type contextKey string

const userIDContextKey = contextKey("userID")

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	utils.SendJSONError(w, message, statusCode)
}

// GetUserIDFromContext extracts the authenticated user id placed there by
// AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	if !ok {
		return 0, errors.New("user ID not found in context")
	}
	return userID, nil
}

// parseYearMonth reads optional year/month query parameters. Zero means
// unfiltered; month without a valid year is ignored.
func parseYearMonth(r *http.Request) (year, month int) {
	if y := r.URL.Query().Get("year"); y != "" {
		if parsed, err := strconv.Atoi(y); err == nil && parsed > 0 {
			year = parsed
		}
	}
	if year == 0 {
		return 0, 0
	}
	if m := r.URL.Query().Get("month"); m != "" {
		if parsed, err := strconv.Atoi(m); err == nil && parsed >= 1 && parsed <= 12 {
			month = parsed
		}
	}
	return year, month
}

// pathID reads a numeric {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
