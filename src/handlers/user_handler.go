package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/ledgerly/backend/src/config"
	"github.com/username/ledgerly/backend/src/database"
	"github.com/username/ledgerly/backend/src/logger"
	"github.com/username/ledgerly/backend/src/model"
	"github.com/username/ledgerly/backend/src/security"
	"github.com/username/ledgerly/backend/src/services"
	"github.com/username/ledgerly/backend/src/store"
	"github.com/username/ledgerly/backend/src/utils"
)

type UserHandler struct {
	authService  *security.AuthService
	emailService services.EmailService
	categories   store.CategoryStore
	transactions store.TransactionStore
}

func NewUserHandler(
	authService *security.AuthService,
	emailService services.EmailService,
	categories store.CategoryStore,
	transactions store.TransactionStore,
) *UserHandler {
	return &UserHandler{
		authService:  authService,
		emailService: emailService,
		categories:   categories,
		transactions: transactions,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" {
		sendJSONError(w, "Username and email are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		sendJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	hashed, err := h.authService.HashPassword(req.Password)
	if err != nil {
		logger.L.Error("Failed to hash password during registration", "error", err)
		sendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	verificationToken, err := security.GenerateRandomToken()
	if err != nil {
		logger.L.Error("Failed to generate verification token", "error", err)
		sendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	user := &model.User{Username: req.Username, Email: req.Email, Password: hashed}
	tokenExpiry := time.Now().Add(config.Cfg.VerificationTokenExpiry)
	if err := user.CreateUser(database.DB, verificationToken, tokenExpiry); err != nil {
		logger.L.Warn("Failed to create user", "username", req.Username, "error", err)
		sendJSONError(w, "Username or email already in use", http.StatusConflict)
		return
	}

	if err := h.categories.CreateDefaultSet(user.ID); err != nil {
		logger.L.Error("Failed to seed default categories", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	if err := h.emailService.SendVerificationEmail(user.Email, user.Username, verificationToken); err != nil {
		// The account exists; the user can request another email.
		logger.L.Error("Failed to send verification email", "userID", user.ID, "error", err)
	}

	utils.SendJSON(w, map[string]string{
		"message": "Registration successful. Please check your email to verify your account.",
	}, http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByUsername(database.DB, strings.TrimSpace(req.Username))
	if err != nil {
		sendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if err := h.authService.CompareHashAndPassword(user.Password, req.Password); err != nil {
		sendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if !user.IsEmailVerified {
		sendJSONError(w, "Email address not verified", http.StatusForbidden)
		return
	}

	accessToken, err := h.authService.GenerateToken(strconv.FormatInt(user.ID, 10))
	if err != nil {
		logger.L.Error("Failed to generate access token", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to log in", http.StatusInternalServerError)
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		logger.L.Error("Failed to generate refresh token", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	session := &model.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		logger.L.Error("Failed to create session", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]interface{}{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user": map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	}, http.StatusOK)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		sendJSONError(w, "Refresh token required", http.StatusBadRequest)
		return
	}

	session, err := model.GetSessionByRefreshToken(database.DB, req.RefreshToken)
	if err != nil {
		sendJSONError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	accessToken, err := h.authService.GenerateToken(strconv.FormatInt(session.UserID, 10))
	if err != nil {
		logger.L.Error("Failed to generate access token on refresh", "userID", session.UserID, "error", err)
		sendJSONError(w, "Failed to refresh token", http.StatusInternalServerError)
		return
	}
	if err := model.UpdateSessionToken(database.DB, session.ID, accessToken); err != nil {
		logger.L.Error("Failed to update session token on refresh", "sessionID", session.ID, "error", err)
		sendJSONError(w, "Failed to refresh token", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{"accessToken": accessToken}, http.StatusOK)
}

func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tokenString != "" {
		if err := model.DeleteSessionByToken(database.DB, tokenString); err != nil {
			logger.L.Error("Failed to delete session on logout", "error", err)
		}
	}
	utils.SendJSON(w, map[string]string{"message": "Logged out"}, http.StatusOK)
}

func (h *UserHandler) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		sendJSONError(w, "Verification token required", http.StatusBadRequest)
		return
	}

	if err := model.VerifyEmailByToken(database.DB, token); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			sendJSONError(w, "Invalid or expired verification token", http.StatusBadRequest)
			return
		}
		logger.L.Error("Failed to verify email", "error", err)
		sendJSONError(w, "Failed to verify email", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{"message": "Email verified successfully"}, http.StatusOK)
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (h *UserHandler) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		sendJSONError(w, "Email required", http.StatusBadRequest)
		return
	}

	// Always answer 200 so the endpoint cannot be used to probe for accounts.
	respond := func() {
		utils.SendJSON(w, map[string]string{
			"message": "If an account with that email exists, a reset link has been sent.",
		}, http.StatusOK)
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := model.GetUserByEmail(database.DB, email)
	if err != nil {
		respond()
		return
	}

	resetToken, err := security.GenerateRandomToken()
	if err != nil {
		logger.L.Error("Failed to generate password reset token", "error", err)
		respond()
		return
	}
	expiry := time.Now().Add(config.Cfg.PasswordResetTokenExpiry)
	if err := model.SetPasswordResetToken(database.DB, email, resetToken, expiry); err != nil {
		logger.L.Error("Failed to store password reset token", "error", err)
		respond()
		return
	}
	if err := h.emailService.SendPasswordResetEmail(user.Email, user.Username, resetToken); err != nil {
		logger.L.Error("Failed to send password reset email", "userID", user.ID, "error", err)
	}
	respond()
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *UserHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.NewPassword) < 8 {
		sendJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	hashed, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		logger.L.Error("Failed to hash password during reset", "error", err)
		sendJSONError(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}

	if err := model.ResetPasswordByToken(database.DB, req.Token, hashed); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			sendJSONError(w, "Invalid or expired reset token", http.StatusBadRequest)
			return
		}
		logger.L.Error("Failed to reset password", "error", err)
		sendJSONError(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{"message": "Password reset successfully"}, http.StatusOK)
}

// HandleCheckUserData reports whether the user has any transactions yet, so
// the frontend can show an onboarding state.
func (h *UserHandler) HandleCheckUserData(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	used, err := h.transactions.UsedCategoryIDs(userID)
	if err != nil {
		logger.L.Error("Failed to check user data", "userID", userID, "error", err)
		sendJSONError(w, "Failed to check user data", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]bool{"hasData": len(used) > 0}, http.StatusOK)
}
