package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/pantrylist/internal/access"
	"github.com/dukerupert/pantrylist/internal/auth"
	"github.com/dukerupert/pantrylist/internal/service"
)

// GroceryHandler exposes the mutation endpoints. Every expected business
// result is a 200 with an outcome envelope {message, id, ...}; field-keyed
// validation maps come back as {errors: {...}}. Only malformed requests and
// store faults use error statuses.
type GroceryHandler struct {
	svc    *service.Service
	access *access.Evaluator
	logger *slog.Logger
}

func NewGroceryHandler(svc *service.Service, eval *access.Evaluator, logger *slog.Logger) *GroceryHandler {
	return &GroceryHandler{svc: svc, access: eval, logger: logger}
}

func writeOutcome(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

// writeValidation reports a field-keyed error map, or false if err is not a
// validation failure.
func writeValidation(w http.ResponseWriter, err error) bool {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusOK, map[string]any{"errors": ve.Fields})
		return true
	}
	return false
}

func (h *GroceryHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	list, err := h.svc.CreateList(auth.Handle(r.Context()), req.Name)
	if err != nil {
		if writeValidation(w, err) {
			return
		}
		h.logger.Error("create list", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create list"})
		return
	}

	writeOutcome(w, map[string]any{"message": service.OutcomeCreated, "id": list.ID})
}

func (h *GroceryHandler) RenameList(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	res, err := h.svc.RenameList(id, auth.UserID(r.Context()), req.Name)
	if err != nil {
		h.logger.Error("rename list", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to rename list"})
		return
	}

	if res.Outcome == service.OutcomeUpdatedList {
		writeOutcome(w, map[string]any{"message": res.Outcome, "id": res.List.ID, "name": res.List.Name})
		return
	}
	writeOutcome(w, map[string]any{"message": res.Outcome, "id": id})
}

func (h *GroceryHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	outcome, err := h.svc.DeleteList(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("delete list", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete list"})
		return
	}

	writeOutcome(w, map[string]any{"message": outcome, "id": id})
}

func (h *GroceryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(r.PathValue("list_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid list_id"})
		return
	}

	var req struct {
		Name     string `json:"name"`
		Quantity string `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	res, err := h.svc.AddItem(listID, auth.UserID(r.Context()), req.Name, req.Quantity)
	if err != nil {
		if writeValidation(w, err) {
			return
		}
		h.logger.Error("add item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add item"})
		return
	}

	if res.Outcome == service.OutcomeAddedItem {
		writeOutcome(w, map[string]any{"message": res.Outcome, "id": res.Item.ID, "listId": res.Item.ListID})
		return
	}
	writeOutcome(w, map[string]any{"message": res.Outcome, "listId": listID})
}

func (h *GroceryHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	res, err := h.svc.RemoveItem(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("remove item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove item"})
		return
	}

	if res.Outcome == service.OutcomeItemRemoved {
		writeOutcome(w, map[string]any{"message": res.Outcome, "id": res.ItemID, "listId": res.ListID})
		return
	}
	writeOutcome(w, map[string]any{"message": res.Outcome, "id": id})
}

func (h *GroceryHandler) CheckItem(w http.ResponseWriter, r *http.Request) {
	h.setShopped(w, r, true)
}

func (h *GroceryHandler) UncheckItem(w http.ResponseWriter, r *http.Request) {
	h.setShopped(w, r, false)
}

func (h *GroceryHandler) setShopped(w http.ResponseWriter, r *http.Request, shopped bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	res, err := h.svc.SetItemShopped(id, auth.UserID(r.Context()), shopped)
	if err != nil {
		h.logger.Error("set shopped", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update item"})
		return
	}

	writeOutcome(w, map[string]any{"message": res.Outcome, "id": id})
}

func (h *GroceryHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	// Grant management is owner-only; the service itself does not re-check.
	owner, err := h.access.IsOwner(auth.UserID(r.Context()), listID)
	if err != nil {
		h.logger.Error("grant access owner check", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to grant access"})
		return
	}
	if !owner {
		writeOutcome(w, map[string]any{"message": service.OutcomeNotOwner, "listId": listID})
		return
	}

	res, err := h.svc.GrantAccess(listID, req.Email)
	if err != nil {
		h.logger.Error("grant access", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to grant access"})
		return
	}

	switch res.Outcome {
	case service.OutcomeGrantedPermission:
		writeOutcome(w, map[string]any{"message": res.Outcome, "id": res.GrantID, "listId": res.ListID})
	case service.OutcomePreviousAccess:
		writeOutcome(w, map[string]any{"message": res.Outcome, "listId": res.ListID})
	default:
		writeOutcome(w, map[string]any{"message": res.Outcome, "listId": listID})
	}
}

func (h *GroceryHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	res, err := h.svc.RevokeAccess(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("revoke access", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to revoke access"})
		return
	}

	writeOutcome(w, map[string]any{"message": res.Outcome, "id": res.GrantID, "listId": res.ListID, "userId": res.UserID})
}
