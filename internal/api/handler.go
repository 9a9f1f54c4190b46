// Package api provides the HTTP API handlers and routing for catalog-service.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"libcommon/pkg/apperrors"
	"libcommon/pkg/binding"
	"libcommon/pkg/pagination"
	"libcommon/pkg/response"

	"libcommon/internal/catalog"
	"libcommon/internal/health"
)

// Handler contains HTTP handlers for the catalog API. Item handlers return
// errors; the router writes them through the shared error handler.
type Handler struct {
	store  catalog.Store
	health *health.Checker
	now    func() time.Time
}

// NewHandler creates a new API handler
func NewHandler(store catalog.Store, healthChecker *health.Checker) *Handler {
	return &Handler{
		store:  store,
		health: healthChecker,
		now:    time.Now,
	}
}

// CreateItem handles POST /v1/items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) error {
	var req catalog.CreateRequest
	if err := binding.DecodeJSON(r, &req); err != nil {
		return err
	}

	item := catalog.NewItem(req, h.now())
	if err := h.store.Create(r.Context(), item); err != nil {
		if errors.Is(err, catalog.ErrDuplicateName) {
			return apperrors.Of(r.Context(), catalog.CodeDuplicateName, req.Name).AddDetail("name", req.Name)
		}
		return err
	}

	response.WriteJSON(w, http.StatusCreated, response.Wrap(http.StatusCreated, item))
	return nil
}

// ListItems handles GET /v1/items
// Query params: page, size, sort_by, direction, name, category, minPrice,
// maxPrice, createdAfter, createdBefore
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) error {
	req, err := pagination.Parse(r)
	if err != nil {
		return err
	}
	where, err := catalog.ParseListFilter(r)
	if err != nil {
		return err
	}

	page, err := h.store.List(r.Context(), where.Spec(), req.ToPageable(catalog.SortFields...))
	if err != nil {
		return err
	}

	response.WriteJSON(w, http.StatusOK, response.OK(pagination.ToResponseWithContent(page, page.Content)))
	return nil
}

// GetItem handles GET /v1/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) error {
	raw, err := binding.PathVariable(r, "id")
	if err != nil {
		return err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return apperrors.BadRequestf(r.Context(), "Invalid item id '{}'", raw)
	}

	item, err := h.store.Get(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		return apperrors.Of(r.Context(), catalog.CodeItemNotFound, id)
	}
	if err != nil {
		return err
	}

	response.WriteJSON(w, http.StatusOK, response.OK(item))
	return nil
}

// Livez handles GET /livez - liveness probe.
// Returns 200 if the process is alive. Does not check dependencies.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, h.health.Liveness(r.Context()))
}

// Readyz handles GET /readyz - readiness probe.
// Returns 503 if the item store is unavailable.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !resp.IsHealthy() {
		status = http.StatusServiceUnavailable
	}

	response.WriteJSON(w, status, resp)
}
