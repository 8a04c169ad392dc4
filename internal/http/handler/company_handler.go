package handler

import (
	"net/http"
	"strings"

	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"go.uber.org/zap"
)

// CompanyHandler handles HTTP requests for companies
type CompanyHandler struct {
	companyService *service.CompanyService
	logger         *zap.Logger
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyService *service.CompanyService, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		logger:         logger,
	}
}

// List godoc
// @Summary List companies
// @Description Paginated companies. Users without the all-companies right see only their own.
// @Tags Companies
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param search query string false "Search by name"
// @Param state query string false "Filter by state"
// @Param relations query string false "Comma separated: client, partner, supplier, competitor"
// @Param active query bool false "Active flag, defaults to true"
// @Param sortBy query string false "Sort field" Enums(name, city, state, createdAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies [get]
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	active, ok := queryBool(w, r, "active")
	if !ok {
		return
	}
	filters := repository.CompanyFilters{
		Active: active,
		State:  r.URL.Query().Get("state"),
		Search: r.URL.Query().Get("search"),
	}
	if rel := r.URL.Query().Get("relations"); rel != "" {
		filters.Relations = strings.Split(rel, ",")
	}

	page := parsePage(r)
	companies, total, err := h.companyService.List(r.Context(), page, filters, parseSort(r))
	if err != nil {
		respondError(w, h.logger, "list companies", err)
		return
	}
	respondPage(w, companies, total, page)
}

// Get godoc
// @Summary Get company
// @Tags Companies
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} domain.CompanyDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{id} [get]
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	company, err := h.companyService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "get company", err)
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// Create godoc
// @Summary Create company
// @Description Rejects a duplicate name in the same city and relation
// @Tags Companies
// @Accept json
// @Produce json
// @Param company body object true "Company fields"
// @Success 201 {object} domain.CompanyDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies [post]
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	company, err := h.companyService.Create(r.Context(), body)
	if err != nil {
		respondError(w, h.logger, "create company", err)
		return
	}
	w.Header().Set("Location", "/api/v1/companies/"+company.ID.String())
	respondJSON(w, http.StatusCreated, company)
}

// Update godoc
// @Summary Update company
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param company body object true "Fields to change"
// @Success 200 {object} domain.CompanyDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{id} [put]
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	company, err := h.companyService.Update(r.Context(), id, body)
	if err != nil {
		respondError(w, h.logger, "update company", err)
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// Delete godoc
// @Summary Soft delete company
// @Tags Companies
// @Param id path string true "Company ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{id} [delete]
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.companyService.SoftDelete(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete company", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
