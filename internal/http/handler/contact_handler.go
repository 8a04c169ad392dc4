package handler

import (
	"net/http"

	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"go.uber.org/zap"
)

// ContactHandler handles HTTP requests for contacts
type ContactHandler struct {
	contactService *service.ContactService
	logger         *zap.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService *service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// List godoc
// @Summary List contacts
// @Tags Contacts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param companyId query string false "Filter by company"
// @Param search query string false "Search by name or email"
// @Param active query bool false "Active flag, defaults to true"
// @Success 200 {object} domain.PaginatedResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [get]
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := queryUUID(w, r, "companyId")
	if !ok {
		return
	}
	active, ok := queryBool(w, r, "active")
	if !ok {
		return
	}

	page := parsePage(r)
	contacts, total, err := h.contactService.List(r.Context(), page, repository.ContactFilters{
		CompanyID: companyID,
		Active:    active,
		Search:    r.URL.Query().Get("search"),
	})
	if err != nil {
		respondError(w, h.logger, "list contacts", err)
		return
	}
	respondPage(w, contacts, total, page)
}

// Get godoc
// @Summary Get contact
// @Tags Contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} domain.ContactDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [get]
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	contact, err := h.contactService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "get contact", err)
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// Create godoc
// @Summary Create contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param contact body object true "Contact fields"
// @Success 201 {object} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [post]
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	contact, err := h.contactService.Create(r.Context(), body)
	if err != nil {
		respondError(w, h.logger, "create contact", err)
		return
	}
	w.Header().Set("Location", "/api/v1/contacts/"+contact.ID.String())
	respondJSON(w, http.StatusCreated, contact)
}

// Update godoc
// @Summary Update contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param contact body object true "Fields to change"
// @Success 200 {object} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	contact, err := h.contactService.Update(r.Context(), id, body)
	if err != nil {
		respondError(w, h.logger, "update contact", err)
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// Delete godoc
// @Summary Soft delete contact
// @Tags Contacts
// @Param id path string true "Contact ID"
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.contactService.SoftDelete(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete contact", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
