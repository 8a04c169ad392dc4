package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/currency"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"github.com/straye-as/sales-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func TestRespondError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{"forbidden", &auth.ForbiddenError{Reason: "Not authorized to update quotes"}, http.StatusForbidden, domain.ErrorTypeForbidden, "Not authorized to update quotes"},
		{"rejection keeps its status", &validation.Rejection{Message: "Quote is locked", Status: http.StatusConflict}, http.StatusConflict, domain.ErrorTypeConflict, "Quote is locked"},
		{"wrapped rejection", fmt.Errorf("create quote: %w", &validation.Rejection{Message: "Invalid currency", Status: http.StatusBadRequest}), http.StatusBadRequest, domain.ErrorTypeBadRequest, "Invalid currency"},
		{"not found", fmt.Errorf("quote %w", service.ErrNotFound), http.StatusNotFound, domain.ErrorTypeNotFound, "quote resource not found"},
		{"conflict", service.ErrEmailTaken, http.StatusConflict, domain.ErrorTypeConflict, service.ErrEmailTaken.Error()},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Unauthorized"},
		{"unknown currency", currency.ErrUnknownCurrency, http.StatusBadRequest, domain.ErrorTypeBadRequest, currency.ErrUnknownCurrency.Error()},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, domain.ErrorTypeInternal, "Failed to get quote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondError(w, zap.NewNop(), "get quote", tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			apiErr := decodeAPIError(t, w)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
		})
	}
}

func TestRespondPage(t *testing.T) {
	w := httptest.NewRecorder()
	respondPage(w, []string{"a", "b"}, 41, repository.Page{Page: 3, PageSize: 20})

	var page struct {
		Data       []string `json:"data"`
		Total      int64    `json:"total"`
		Page       int      `json:"page"`
		PageSize   int      `json:"pageSize"`
		TotalPages int      `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, []string{"a", "b"}, page.Data)
	assert.Equal(t, int64(41), page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)
}

func TestParsePageAndSort(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/quotes?page=0&pageSize=5000&sortBy=quoteNumber&sortOrder=desc", nil)
	page := parsePage(r)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, repository.MaxPageSize, page.PageSize)

	sort := parseSort(r)
	assert.Equal(t, "quoteNumber", sort.Field)
	assert.Equal(t, repository.ParseSortOrder("desc"), sort.Order)
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	var got uuid.UUID
	router := chi.NewRouter()
	router.Get("/quotes/{id}", func(w http.ResponseWriter, r *http.Request) {
		if v, ok := parseID(w, r); ok {
			got = v
			w.WriteHeader(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quotes/"+id.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, got)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quotes/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid ID", decodeAPIError(t, w).Detail)
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/tasks?active=false&progress=40&owner=bad", nil)

	w := httptest.NewRecorder()
	active, ok := queryBool(w, r, "active")
	require.True(t, ok)
	require.NotNil(t, active)
	assert.False(t, *active)

	missing, ok := queryBool(w, r, "others")
	assert.True(t, ok)
	assert.Nil(t, missing)

	progress, ok := queryInt(w, r, "progress")
	require.True(t, ok)
	assert.Equal(t, 40, *progress)

	_, ok = queryUUID(w, r, "owner")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid owner: must be a valid UUID", decodeAPIError(t, w).Detail)
}

func TestDecodeAndValidate(t *testing.T) {
	body := `{"email": "not-an-email"}`
	w := httptest.NewRecorder()
	var req domain.LoginRequest
	ok := decodeAndValidate(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)), &req)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	apiErr := decodeAPIError(t, w)
	assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
	assert.Equal(t, "Must be a valid email address", apiErr.Errors["email"])
	assert.Equal(t, "password is required", apiErr.Errors["password"])
}
