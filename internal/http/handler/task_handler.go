package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"go.uber.org/zap"
)

// TaskHandler handles HTTP requests for tasks
type TaskHandler struct {
	taskService *service.TaskService
	logger      *zap.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

// List godoc
// @Summary List tasks
// @Description Lists the caller's own tasks unless others=true
// @Tags Tasks
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param others query bool false "Include tasks of other users"
// @Param responsibleId query string false "Filter by responsible user"
// @Param opportunityId query string false "Filter by opportunity"
// @Param quoteId query string false "Filter by quote"
// @Param poId query string false "Filter by PO"
// @Param status query int false "Filter by status"
// @Param from query string false "Start date lower bound (YYYY-MM-DD)"
// @Param to query string false "Start date upper bound (YYYY-MM-DD)"
// @Param active query bool false "Active flag, defaults to true"
// @Success 200 {object} domain.PaginatedResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks [get]
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters repository.TaskFilters
	var ok bool
	if filters.ResponsibleID, ok = queryUUID(w, r, "responsibleId"); !ok {
		return
	}
	if filters.OpportunityID, ok = queryUUID(w, r, "opportunityId"); !ok {
		return
	}
	if filters.QuoteID, ok = queryUUID(w, r, "quoteId"); !ok {
		return
	}
	if filters.POID, ok = queryUUID(w, r, "poId"); !ok {
		return
	}
	if filters.Active, ok = queryBool(w, r, "active"); !ok {
		return
	}
	if filters.From, ok = queryDate(w, r, "from"); !ok {
		return
	}
	if filters.To, ok = queryDate(w, r, "to"); !ok {
		return
	}
	status, ok := queryInt(w, r, "status")
	if !ok {
		return
	}
	if status != nil {
		s := domain.TaskStatus(*status)
		filters.Status = &s
	}
	others, ok := queryBool(w, r, "others")
	if !ok {
		return
	}

	page := parsePage(r)
	tasks, total, err := h.taskService.List(r.Context(), page, filters, parseSort(r), others != nil && *others)
	if err != nil {
		respondError(w, h.logger, "list tasks", err)
		return
	}
	respondPage(w, tasks, total, page)
}

func queryDate(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s: must be YYYY-MM-DD", name))
		return nil, false
	}
	return &t, true
}

// Get godoc
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} domain.TaskDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	task, err := h.taskService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "get task", err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param task body object true "Task fields"
// @Success 201 {object} domain.TaskDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks [post]
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	task, err := h.taskService.Create(r.Context(), body)
	if err != nil {
		respondError(w, h.logger, "create task", err)
		return
	}
	w.Header().Set("Location", "/api/v1/tasks/"+task.ID.String())
	respondJSON(w, http.StatusCreated, task)
}

// Update godoc
// @Summary Update task
// @Description The author, the responsible user or a project manager may edit
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param task body object true "Fields to change"
// @Success 200 {object} domain.TaskDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	task, err := h.taskService.Update(r.Context(), id, body)
	if err != nil {
		respondError(w, h.logger, "update task", err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Delete godoc
// @Summary Soft delete task
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.taskService.SoftDelete(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
