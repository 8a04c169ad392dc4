package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/mapper"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/validation"
	"go.uber.org/zap"
)

type TaskService struct {
	taskRepo  *repository.TaskRepository
	validator *validation.TaskValidator
	logger    *zap.Logger
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	userRepo *repository.UserRepository,
	opportunityRepo *repository.OpportunityRepository,
	quoteRepo *repository.QuoteRepository,
	poRepo *repository.PORepository,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		validator: validation.NewTaskValidator(userRepo, opportunityRepo, quoteRepo, poRepo),
		logger:    logger,
	}
}

// List returns the actor's tasks, those they are responsible for or added.
// others lifts the scope to everyone's tasks.
func (s *TaskService) List(ctx context.Context, page repository.Page, filters repository.TaskFilters, sort repository.SortConfig, others bool) ([]domain.TaskDTO, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	filters.UserID = nil
	if !others {
		filters.UserID = &actor.ID
	}

	tasks, total, err := s.taskRepo.List(ctx, page, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	dtos := make([]domain.TaskDTO, len(tasks))
	for i := range tasks {
		dtos[i] = mapper.ToTaskDTO(&tasks[i])
	}
	return dtos, total, nil
}

func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "task")
	}
	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

func (s *TaskService) Create(ctx context.Context, body []byte) (*domain.TaskDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionCreate, auth.EntityTask, nil); err != nil {
		return nil, err
	}

	task, err := s.validator.Validate(ctx, validation.ModeCreate, actor, body, nil)
	if err != nil {
		return nil, err
	}
	stampCreated(&task.Audit, actor, time.Now().UTC())

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, writeError(err, "create task")
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID.String()),
		zap.String("responsible_id", task.ResponsibleID.String()))
	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

func (s *TaskService) Update(ctx context.Context, id uuid.UUID, body []byte) (*domain.TaskDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionUpdate, auth.EntityTask, taskOwner(actor, existing)); err != nil {
		return nil, err
	}

	task, err := s.validator.Validate(ctx, validation.ModeUpdate, actor, body, existing)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, writeError(err, "update task")
	}

	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

func (s *TaskService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	task, err := s.loadActive(ctx, id)
	if err != nil {
		return err
	}
	if err := gate(actor, auth.ActionDelete, auth.EntityTask, taskOwner(actor, task)); err != nil {
		return err
	}
	if err := stampDeleted(&task.Audit, actor, time.Now().UTC()); err != nil {
		return fmt.Errorf("task %w", err)
	}
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("task deleted", zap.String("task_id", id.String()), zap.String("by", actor.ID.String()))
	return nil
}

func (s *TaskService) loadActive(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "task")
	}
	if task.IsDeleted() {
		return nil, fmt.Errorf("task %w", ErrNotFound)
	}
	return task, nil
}

// taskOwner is the responsible user when the actor is responsible for the task,
// otherwise the user who added it
func taskOwner(actor *domain.User, t *domain.Task) *uuid.UUID {
	if t.ResponsibleID == actor.ID {
		id := t.ResponsibleID
		return &id
	}
	return ownerOf(&t.Audit)
}
