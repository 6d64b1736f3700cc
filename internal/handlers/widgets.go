package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/store"
	"github.com/voiceboard/voiceboard/internal/validation"
)

// WidgetHandler handles dashboard widget requests
type WidgetHandler struct {
	store *store.Store
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(s *store.Store) *WidgetHandler {
	return &WidgetHandler{store: s}
}

// RegisterRoutes registers widget routes on the given router
// The router should already have the /widgets prefix
func (h *WidgetHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListWidgets).Methods("GET")
	r.HandleFunc("", h.CreateWidget).Methods("POST")
	r.HandleFunc("/trash", h.ListTrash).Methods("GET")
	r.HandleFunc("/trash", h.ClearTrash).Methods("DELETE")
	r.HandleFunc("/trash/restore", h.RestoreAll).Methods("POST")
	r.HandleFunc("/trash/{id}/restore", h.RestoreWidget).Methods("POST")
	r.HandleFunc("/{id}", h.GetWidget).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateWidget).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteWidget).Methods("DELETE")
	r.HandleFunc("/{id}/categories/{categoryID}", h.DeleteCategory).Methods("DELETE")
}

// CreateWidgetRequest represents a create widget request
type CreateWidgetRequest struct {
	Type     string           `json:"type" validate:"required,widget_type"`
	Position *models.Position `json:"position,omitempty"`
}

// UpdateWidgetRequest represents a partial widget update
type UpdateWidgetRequest struct {
	Position   *models.Position   `json:"position,omitempty"`
	Size       *models.Size       `json:"size,omitempty"`
	Data       *models.WidgetData `json:"data,omitempty"`
	DataPolicy string             `json:"data_policy,omitempty" validate:"merge_policy"`
}

// ListWidgets returns all active widgets
func (h *WidgetHandler) ListWidgets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.List())
}

// CreateWidget adds a new widget. Each widget type may only exist once
// on the dashboard.
func (h *WidgetHandler) CreateWidget(w http.ResponseWriter, r *http.Request) {
	var req CreateWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	widgetType := models.WidgetType(req.Type)
	if h.store.HasType(widgetType) {
		respondJSONError(w, http.StatusConflict, "Conflict", "A widget of this type is already on the dashboard")
		return
	}
	if h.store.HasTrashedType(widgetType) {
		respondJSONError(w, http.StatusConflict, "Conflict", "A widget of this type is in the trash; restore or clear it first")
		return
	}

	widget := h.store.Add(widgetType, req.Position)
	respondJSON(w, http.StatusCreated, widget)
}

// GetWidget returns a single widget by ID
func (h *WidgetHandler) GetWidget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	widget, err := h.store.Get(id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Widget not found")
		return
	}
	respondJSON(w, http.StatusOK, widget)
}

// UpdateWidget applies a partial update to a widget's position, size or data
func (h *WidgetHandler) UpdateWidget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	upd := store.Update{
		Position: req.Position,
		Size:     req.Size,
		Data:     req.Data,
	}
	if req.DataPolicy == "merge" {
		upd.DataPolicy = store.MergeShallow
	}

	widget, err := h.store.UpdateWidget(id, upd)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Widget not found")
		return
	}
	respondJSON(w, http.StatusOK, widget)
}

// DeleteWidget moves a widget to the trash
func (h *WidgetHandler) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.Remove(id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Widget not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "trashed"})
}

// ListTrash returns all trashed widgets
func (h *WidgetHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.ListTrashed())
}

// RestoreWidget moves a trashed widget back to the dashboard. Restoring
// fails if an active widget of the same type already exists.
func (h *WidgetHandler) RestoreWidget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	widget, err := h.store.Restore(id)
	if err != nil {
		if errors.Is(err, store.ErrTypeExists) {
			respondJSONError(w, http.StatusConflict, "Conflict", "A widget of this type is already on the dashboard")
			return
		}
		respondJSONError(w, http.StatusNotFound, "Not Found", "Widget not found in trash")
		return
	}
	respondJSON(w, http.StatusOK, widget)
}

// RestoreAll restores every trashed widget whose type is not already
// active. Widgets that collide stay in the trash.
func (h *WidgetHandler) RestoreAll(w http.ResponseWriter, r *http.Request) {
	restored := h.store.RestoreAll()
	respondJSON(w, http.StatusOK, map[string]any{
		"restored":  restored,
		"remaining": h.store.ListTrashed(),
	})
}

// ClearTrash permanently deletes all trashed widgets
func (h *WidgetHandler) ClearTrash(w http.ResponseWriter, r *http.Request) {
	h.store.ClearTrash()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// DeleteCategory removes an expense category. A category still
// referenced by any expense cannot be deleted; the expenses must be
// removed first.
func (h *WidgetHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	categoryID := vars["categoryID"]

	widget, err := h.store.Get(id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Widget not found")
		return
	}
	if widget.Type != models.WidgetTypeExpense {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Widget does not track expenses")
		return
	}

	found := false
	categories := make([]models.ExpenseCategory, 0, len(widget.Data.Categories))
	for _, c := range widget.Data.Categories {
		if c.ID == categoryID {
			found = true
			continue
		}
		categories = append(categories, c)
	}
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Category not found")
		return
	}

	for _, e := range widget.Data.Expenses {
		if e.CategoryID == categoryID {
			respondJSONError(w, http.StatusConflict, "Conflict", "Category is still referenced by recorded expenses")
			return
		}
	}

	data := widget.Data
	data.Categories = categories

	updated, err := h.store.UpdateWidget(id, store.Update{Data: &data})
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Widget not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
