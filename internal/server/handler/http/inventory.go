package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/cerevyn/internal/apperr"
	"github.com/atinyakov/cerevyn/internal/middleware"
	"github.com/atinyakov/cerevyn/internal/models"
	"github.com/atinyakov/cerevyn/internal/server/respond"
	"github.com/atinyakov/cerevyn/internal/service"
)

// InventoryService defines the owner-scoped operations
// required by the InventoryHandler.
type InventoryService interface {
	Create(ctx context.Context, ownerID string, in models.ItemInput) (*models.InventoryItem, error)
	List(ctx context.Context, ownerID string) (*service.ListResult, error)
	Update(ctx context.Context, ownerID, itemID string, patch models.ItemPatch) (*models.InventoryItem, error)
	Delete(ctx context.Context, ownerID, itemID string) error
}

// InventoryHandler serves the inventory endpoints. Every method expects the
// acting identity to have been attached by middleware.Authenticate.
type InventoryHandler struct {
	InventoryService InventoryService
	Log              *zap.Logger
}

type itemsData struct {
	Items []models.InventoryItem `json:"items"`
}

// ListResponse is the body of GET /inventory.
type ListResponse struct {
	Status  string         `json:"status"`
	Results int            `json:"results"`
	Summary models.Summary `json:"summary"`
	Data    itemsData      `json:"data"`
}

type itemData struct {
	Item *models.InventoryItem `json:"item"`
}

// ItemResponse is the body of item create and update.
type ItemResponse struct {
	Status string   `json:"status"`
	Data   itemData `json:"data"`
}

// List handles GET /inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	res, err := h.InventoryService.List(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, ListResponse{
		Status:  respond.StatusSuccess,
		Results: len(res.Items),
		Summary: res.Summary,
		Data:    itemsData{Items: res.Items},
	})
}

// Create handles POST /inventory. Any owner field in the body is ignored.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	var in models.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	item, err := h.InventoryService.Create(r.Context(), user.ID, in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, ItemResponse{Status: respond.StatusSuccess, Data: itemData{Item: item}})
}

// Update handles PATCH /inventory/{id}.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	var patch models.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	item, err := h.InventoryService.Update(r.Context(), user.ID, chi.URLParam(r, "id"), patch)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, ItemResponse{Status: respond.StatusSuccess, Data: itemData{Item: item}})
}

// Delete handles DELETE /inventory/{id} and responds 204 with no body.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.InventoryService.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) identity(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, r, h.Log, apperr.ErrUnauthenticated)
	}
	return user, ok
}
