package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/username/ledgerly/backend/src/logger"
	"github.com/username/ledgerly/backend/src/models"
	"github.com/username/ledgerly/backend/src/processors"
	"github.com/username/ledgerly/backend/src/services"
	"github.com/username/ledgerly/backend/src/store"
	"github.com/username/ledgerly/backend/src/utils"
)

type TransactionHandler struct {
	transactions store.TransactionStore
	categories   store.CategoryStore
	rules        store.RuleStore
	recatService services.RecategorizeService
	cache        *services.UserCache
}

func NewTransactionHandler(
	transactions store.TransactionStore,
	categories store.CategoryStore,
	rules store.RuleStore,
	recatService services.RecategorizeService,
	cache *services.UserCache,
) *TransactionHandler {
	return &TransactionHandler{
		transactions: transactions,
		categories:   categories,
		rules:        rules,
		recatService: recatService,
		cache:        cache,
	}
}

// HandleGetTransactions lists the user's transactions, optionally filtered
// by ?year= and ?month=. Responses carry an ETag so unchanged lists can be
// answered with 304.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	year, month := parseYearMonth(r)
	transactions, err := h.transactions.FindByUser(userID, year, month)
	if err != nil {
		logger.L.Error("Failed to list transactions", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	if etag, err := utils.GenerateETag(transactions); err == nil {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	utils.SendJSON(w, transactions, http.StatusOK)
}

type createTransactionRequest struct {
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
	PaymentMethod string `json:"paymentMethod"`
	CategoryID    *int64 `json:"categoryId"`
}

// HandleCreateTransaction inserts one manual entry. When no category is
// given, the rule set decides, exactly as it would during an import.
func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := utils.ParseAmount(req.Amount)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		sendJSONError(w, "Description is required", http.StatusBadRequest)
		return
	}
	paymentMethod := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if paymentMethod == "" {
		paymentMethod = "other"
	}

	var categoryID int64
	if req.CategoryID != nil {
		category, err := h.visibleCategory(userID, *req.CategoryID)
		if err != nil {
			sendJSONError(w, "Category not found", http.StatusBadRequest)
			return
		}
		categoryID = category.ID
	} else {
		rules, err := h.cache.ApplicableRules(userID, h.rules)
		if err != nil {
			logger.L.Error("Failed to load rules for manual transaction", "userID", userID, "error", err)
			sendJSONError(w, "Failed to create transaction", http.StatusInternalServerError)
			return
		}
		other, err := h.categories.FindOther(userID)
		if err != nil {
			logger.L.Error("Fallback category missing", "userID", userID, "error", err)
			sendJSONError(w, "Account is missing its fallback category", http.StatusInternalServerError)
			return
		}
		categoryID, _ = processors.Categorize(rules, description, other.ID)
	}

	candidate := models.CandidateTransaction{
		Date:          date,
		Amount:        amount,
		Description:   description,
		PaymentMethod: paymentMethod,
	}
	created, err := h.transactions.InsertOne(userID, store.NewTransaction{Candidate: candidate, CategoryID: categoryID})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			sendJSONError(w, "An identical transaction already exists", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create transaction", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create transaction", http.StatusInternalServerError)
		return
	}

	h.cache.InvalidateUser(userID)
	utils.SendJSON(w, created, http.StatusCreated)
}

type updateCategoryRequest struct {
	CategoryID int64 `json:"categoryId"`
}

// HandleUpdateTransactionCategory moves one transaction to another category.
func (h *TransactionHandler) HandleUpdateTransactionCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	transactionID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}

	var req updateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.visibleCategory(userID, req.CategoryID); err != nil {
		sendJSONError(w, "Category not found", http.StatusBadRequest)
		return
	}

	if err := h.transactions.UpdateCategory(userID, transactionID, req.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update transaction category", "userID", userID, "transactionID", transactionID, "error", err)
		sendJSONError(w, "Failed to update transaction", http.StatusInternalServerError)
		return
	}

	h.cache.InvalidateUser(userID)
	utils.SendJSON(w, map[string]string{"message": "Transaction updated"}, http.StatusOK)
}

// HandleRecategorize re-runs the rule set over the user's fallback
// transactions, optionally limited to ?year= / ?month=.
func (h *TransactionHandler) HandleRecategorize(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	year, month := parseYearMonth(r)
	result, err := h.recatService.Sweep(userID, year, month)
	if err != nil {
		if errors.Is(err, services.ErrNoFallbackCategory) {
			sendJSONError(w, "Account is missing its fallback category", http.StatusInternalServerError)
			return
		}
		logger.L.Error("Recategorize sweep failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to re-categorize transactions", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}

func (h *TransactionHandler) HandleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.transactions.DeleteAllForUser(userID); err != nil {
		logger.L.Error("Failed to delete transactions", "userID", userID, "error", err)
		sendJSONError(w, "Failed to delete transactions", http.StatusInternalServerError)
		return
	}

	h.cache.InvalidateUser(userID)
	logger.L.Info("Deleted all transactions", "userID", userID)
	utils.SendJSON(w, map[string]string{"message": "All transactions deleted"}, http.StatusOK)
}

// visibleCategory resolves a category id and checks the user may use it.
func (h *TransactionHandler) visibleCategory(userID, categoryID int64) (*models.Category, error) {
	category, err := h.categories.FindByID(categoryID)
	if err != nil {
		return nil, err
	}
	if !category.VisibleTo(userID) {
		return nil, store.ErrNotFound
	}
	return category, nil
}
