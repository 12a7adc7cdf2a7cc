package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/username/ledgerly/backend/src/logger"
)

const csrfCookieName = "_ledgerly_csrf"

// signCSRFToken appends an HMAC of the token so a forged cookie without the
// server key fails validation.
func signCSRFToken(authKey []byte, token string) string {
	mac := hmac.New(sha256.New, authKey)
	mac.Write([]byte(token))
	return token + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func verifyCSRFCookie(authKey []byte, cookieValue string) (string, bool) {
	token, _, found := strings.Cut(cookieValue, ".")
	if !found || token == "" {
		return "", false
	}
	if !hmac.Equal([]byte(signCSRFToken(authKey, token)), []byte(cookieValue)) {
		return "", false
	}
	return token, true
}

// NewCSRFTokenHandler issues a double-submit token: the signed value goes in
// an HttpOnly cookie, the raw token in the body for the client to echo back
// in the X-CSRF-Token header.
func NewCSRFTokenHandler(authKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			logger.L.Error("Failed to generate CSRF token", "error", err)
			sendJSONError(w, "Failed to generate CSRF token", http.StatusInternalServerError)
			return
		}
		token := base64.RawURLEncoding.EncodeToString(b)

		http.SetCookie(w, &http.Cookie{
			Name:     csrfCookieName,
			Value:    signCSRFToken(authKey, token),
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
			HttpOnly: true,
			Secure:   false, // behind TLS termination in production
			MaxAge:   3600,
		})

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-CSRF-Token", token)
		json.NewEncoder(w).Encode(map[string]string{"csrfToken": token})
	}
}

// CSRFMiddleware enforces the double-submit check on mutating requests.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken == "" || err != nil {
				logger.L.Warn("CSRF validation failed: missing token", "method", r.Method, "path", r.URL.Path)
				sendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			cookieToken, ok := verifyCSRFCookie(authKey, cookie.Value)
			if !ok || !hmac.Equal([]byte(cookieToken), []byte(headerToken)) {
				logger.L.Warn("CSRF validation failed: token mismatch", "method", r.Method, "path", r.URL.Path)
				sendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
