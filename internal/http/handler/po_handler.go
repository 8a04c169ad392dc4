package handler

import (
	"net/http"

	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"go.uber.org/zap"
)

// POHandler handles HTTP requests for purchase orders
type POHandler struct {
	poService *service.POService
	logger    *zap.Logger
}

// NewPOHandler creates a new POHandler
func NewPOHandler(poService *service.POService, logger *zap.Logger) *POHandler {
	return &POHandler{poService: poService, logger: logger}
}

// List godoc
// @Summary List purchase orders
// @Tags POs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param companyId query string false "Filter by company"
// @Param status query int false "Filter by status"
// @Param search query string false "Search by PO number"
// @Param active query bool false "Active flag, defaults to true"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pos [get]
func (h *POHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters repository.POFilters
	var ok bool
	if filters.CompanyID, ok = queryUUID(w, r, "companyId"); !ok {
		return
	}
	if filters.Active, ok = queryBool(w, r, "active"); !ok {
		return
	}
	status, ok := queryInt(w, r, "status")
	if !ok {
		return
	}
	if status != nil {
		s := domain.POStatus(*status)
		filters.Status = &s
	}
	filters.Search = r.URL.Query().Get("search")

	page := parsePage(r)
	pos, total, err := h.poService.List(r.Context(), page, filters, parseSort(r))
	if err != nil {
		respondError(w, h.logger, "list purchase orders", err)
		return
	}
	respondPage(w, pos, total, page)
}

// Get godoc
// @Summary Get purchase order
// @Tags POs
// @Produce json
// @Param id path string true "PO ID"
// @Success 200 {object} domain.PODTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pos/{id} [get]
func (h *POHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	po, err := h.poService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "get purchase order", err)
		return
	}
	respondJSON(w, http.StatusOK, po)
}

// Create godoc
// @Summary Create purchase order
// @Description Items linked to quote part items inherit their blank fields
// @Tags POs
// @Accept json
// @Produce json
// @Param po body object true "PO with items"
// @Success 201 {object} domain.PODTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pos [post]
func (h *POHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	po, err := h.poService.Create(r.Context(), body)
	if err != nil {
		respondError(w, h.logger, "create purchase order", err)
		return
	}
	w.Header().Set("Location", "/api/v1/pos/"+po.ID.String())
	respondJSON(w, http.StatusCreated, po)
}

// Update godoc
// @Summary Update purchase order
// @Tags POs
// @Accept json
// @Produce json
// @Param id path string true "PO ID"
// @Param po body object true "Fields to change"
// @Success 200 {object} domain.PODTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pos/{id} [put]
func (h *POHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	po, err := h.poService.Update(r.Context(), id, body)
	if err != nil {
		respondError(w, h.logger, "update purchase order", err)
		return
	}
	respondJSON(w, http.StatusOK, po)
}

// ChangeStatus godoc
// @Summary Change purchase order status
// @Tags POs
// @Accept json
// @Produce json
// @Param id path string true "PO ID"
// @Param request body object true "Target status"
// @Success 200 {object} domain.PODTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pos/{id}/status [put]
func (h *POHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	po, err := h.poService.ChangeStatus(r.Context(), id, body)
	if err != nil {
		respondError(w, h.logger, "change purchase order status", err)
		return
	}
	respondJSON(w, http.StatusOK, po)
}

// Delete godoc
// @Summary Soft delete purchase order
// @Tags POs
// @Param id path string true "PO ID"
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pos/{id} [delete]
func (h *POHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.poService.SoftDelete(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete purchase order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
