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

const defaultRulePriority = 100

type RuleHandler struct {
	rules      store.RuleStore
	categories store.CategoryStore
	cache      *services.UserCache
}

func NewRuleHandler(rules store.RuleStore, categories store.CategoryStore, cache *services.UserCache) *RuleHandler {
	return &RuleHandler{
		rules:      rules,
		categories: categories,
		cache:      cache,
	}
}

func (h *RuleHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rules, err := h.cache.ApplicableRules(userID, h.rules)
	if err != nil {
		logger.L.Error("Failed to list rules", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list rules", http.StatusInternalServerError)
		return
	}
	if rules == nil {
		rules = []models.Rule{}
	}

	utils.SendJSON(w, rules, http.StatusOK)
}

type ruleRequest struct {
	Keyword    string `json:"keyword"`
	CategoryID int64  `json:"categoryId"`
	Priority   *int   `json:"priority"`
}

func (h *RuleHandler) validateRuleRequest(userID int64, req *ruleRequest) (string, int, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return "", 0, errors.New("keyword is required")
	}

	category, err := h.categories.FindByID(req.CategoryID)
	if err != nil || !category.VisibleTo(userID) {
		return "", 0, errors.New("category not found")
	}

	priority := defaultRulePriority
	if req.Priority != nil {
		priority = *req.Priority
	}
	return keyword, priority, nil
}

func (h *RuleHandler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	keyword, priority, err := h.validateRuleRequest(userID, &req)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rule := &models.Rule{
		UserID:     &userID,
		Keyword:    keyword,
		CategoryID: req.CategoryID,
		Priority:   priority,
	}
	if err := h.rules.Create(rule); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			sendJSONError(w, "A rule with that keyword already exists", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create rule", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create rule", http.StatusInternalServerError)
		return
	}

	h.cache.InvalidateUser(userID)
	utils.SendJSON(w, rule, http.StatusCreated)
}

func (h *RuleHandler) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ruleID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	keyword, priority, err := h.validateRuleRequest(userID, &req)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rule := &models.Rule{
		ID:         ruleID,
		Keyword:    keyword,
		CategoryID: req.CategoryID,
		Priority:   priority,
	}
	if err := h.rules.Update(userID, rule); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			sendJSONError(w, "Rule not found", http.StatusNotFound)
		case errors.Is(err, store.ErrDuplicate):
			sendJSONError(w, "A rule with that keyword already exists", http.StatusConflict)
		default:
			logger.L.Error("Failed to update rule", "userID", userID, "ruleID", ruleID, "error", err)
			sendJSONError(w, "Failed to update rule", http.StatusInternalServerError)
		}
		return
	}

	h.cache.InvalidateUser(userID)
	utils.SendJSON(w, map[string]string{"message": "Rule updated"}, http.StatusOK)
}

func (h *RuleHandler) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ruleID, err := pathID(r)
	if err != nil {
		sendJSONError(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	if err := h.rules.Delete(userID, ruleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendJSONError(w, "Rule not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete rule", "userID", userID, "ruleID", ruleID, "error", err)
		sendJSONError(w, "Failed to delete rule", http.StatusInternalServerError)
		return
	}

	h.cache.InvalidateUser(userID)
	utils.SendJSON(w, map[string]string{"message": "Rule deleted"}, http.StatusOK)
}
