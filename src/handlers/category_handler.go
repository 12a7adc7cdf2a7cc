package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/username/ledgerly/backend/src/logger"
	"github.com/username/ledgerly/backend/src/models"
	"github.com/username/ledgerly/backend/src/services"
	"github.com/username/ledgerly/backend/src/store"
	"github.com/username/ledgerly/backend/src/utils"
)

type CategoryHandler struct {
	categories   store.CategoryStore
	transactions store.TransactionStore
	rules        store.RuleStore
	cache        *services.UserCache
}

func NewCategoryHandler(
	categories store.CategoryStore,
	transactions store.TransactionStore,
	rules store.RuleStore,
	cache *services.UserCache,
) *CategoryHandler {
	return &CategoryHandler{
		categories:   categories,
		transactions: transactions,
		rules:        rules,
		cache:        cache,
	}
}

// HandleListCategories returns system and user categories in display order,
// annotated with whether each has rules or transactions attached.
func (h *CategoryHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	categories, err := h.categories.FindForUser(userID)
	if err != nil {
		logger.L.Error("Failed to list categories", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}

	withRules, err := h.rules.CategoryIDsWithRules(userID)
	if err != nil {
		logger.L.Error("Failed to load rule usage", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}
	withTransactions, err := h.transactions.UsedCategoryIDs(userID)
	if err != nil {
		logger.L.Error("Failed to load transaction usage", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}

	for i := range categories {
		categories[i].HasRules = withRules[categories[i].ID]
		categories[i].HasTransactions = withTransactions[categories[i].ID]
	}

	utils.SendJSON(w, categories, http.StatusOK)
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (h *CategoryHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		sendJSONError(w, "Category name is required", http.StatusBadRequest)
		return
	}

	category := &models.Category{
		UserID: &userID,
		Name:   req.Name,
		Color:  req.Color,
		Icon:   req.Icon,
	}
	if category.Color == "" {
		category.Color = "#9e9e9e"
	}
	if category.Icon == "" {
		category.Icon = "label"
	}

	if err := h.categories.Create(category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			sendJSONError(w, "A category with that name already exists", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create category", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create category", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, category, http.StatusCreated)
}

func (h *CategoryHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	categoryID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "Invalid category id", http.StatusBadRequest)
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		sendJSONError(w, "Category name is required", http.StatusBadRequest)
		return
	}

	category := &models.Category{ID: categoryID, Name: req.Name, Color: req.Color, Icon: req.Icon}
	if err := h.categories.Update(userID, category); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			sendJSONError(w, "Category not found", http.StatusNotFound)
		case errors.Is(err, store.ErrDuplicate):
			sendJSONError(w, "A category with that name already exists", http.StatusConflict)
		default:
			logger.L.Error("Failed to update category", "userID", userID, "categoryID", categoryID, "error", err)
			sendJSONError(w, "Failed to update category", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, map[string]string{"message": "Category updated"}, http.StatusOK)
}

// HandleDeleteCategory removes a user category. Its transactions move to the
// Other fallback first so no entry is left uncategorized. Ownership and the
// Other invariant are checked before anything moves; a rejected delete
// leaves every transaction where it was.
func (h *CategoryHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	categoryID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "Invalid category id", http.StatusBadRequest)
		return
	}

	category, err := h.categories.FindByID(categoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendJSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load category for delete", "userID", userID, "categoryID", categoryID, "error", err)
		sendJSONError(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}
	if category.IsOther {
		sendJSONError(w, "The Other category cannot be deleted", http.StatusConflict)
		return
	}
	if category.UserID == nil || *category.UserID != userID {
		sendJSONError(w, "Category not found", http.StatusNotFound)
		return
	}

	other, err := h.categories.FindOther(userID)
	if err != nil {
		logger.L.Error("Fallback category missing", "userID", userID, "error", err)
		sendJSONError(w, "Account is missing its fallback category", http.StatusInternalServerError)
		return
	}

	moved, err := h.transactions.ReassignCategory(userID, categoryID, other.ID)
	if err != nil {
		logger.L.Error("Failed to reassign transactions before delete", "userID", userID, "categoryID", categoryID, "error", err)
		sendJSONError(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}

	if err := h.categories.Delete(userID, categoryID); err != nil {
		switch {
		case errors.Is(err, store.ErrOtherImmutable):
			sendJSONError(w, "The Other category cannot be deleted", http.StatusConflict)
		case errors.Is(err, store.ErrNotFound):
			sendJSONError(w, "Category not found", http.StatusNotFound)
		default:
			logger.L.Error("Failed to delete category", "userID", userID, "categoryID", categoryID, "error", err)
			sendJSONError(w, "Failed to delete category", http.StatusInternalServerError)
		}
		return
	}

	h.cache.InvalidateUser(userID)
	logger.L.Info("Category deleted", "userID", userID, "categoryID", categoryID, "reassignedTransactions", moved)
	utils.SendJSON(w, map[string]interface{}{
		"message":                "Category deleted",
		"reassignedTransactions": moved,
	}, http.StatusOK)
}

type reorderRequest struct {
	OrderedIDs []int64 `json:"orderedIds"`
}

func (h *CategoryHandler) HandleReorderCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.OrderedIDs) == 0 {
		sendJSONError(w, "orderedIds is required", http.StatusBadRequest)
		return
	}

	if err := h.categories.Reorder(userID, req.OrderedIDs); err != nil {
		switch {
		case errors.Is(err, store.ErrOtherImmutable):
			sendJSONError(w, "The Other category cannot be reordered", http.StatusConflict)
		case errors.Is(err, store.ErrNotFound):
			sendJSONError(w, "One or more categories were not found", http.StatusNotFound)
		default:
			logger.L.Error("Failed to reorder categories", "userID", userID, "error", err)
			sendJSONError(w, "Failed to reorder categories", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, map[string]string{"message": "Categories reordered"}, http.StatusOK)
}
