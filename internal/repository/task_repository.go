package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
	"gorm.io/gorm"
)

// TaskFilters narrows the task list
type TaskFilters struct {
	// UserID scopes the list to tasks the user is responsible for or added.
	// Nil lists everyone's tasks.
	UserID        *uuid.UUID
	ResponsibleID *uuid.UUID
	Status        *domain.TaskStatus
	Active        *bool
	From          *time.Time
	To            *time.Time
	OpportunityID *uuid.UUID
	QuoteID       *uuid.UUID
	POID          *uuid.UUID
}

var taskSortFields = map[string]string{
	"name":      "name",
	"status":    "status",
	"startDate": "start_date",
	"dueDate":   "due_date",
	"progress":  "progress",
}

// TaskRepository handles tasks
type TaskRepository struct {
	session
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{session{db: db}}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Create(task).Error
	})
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Save(task).Error
	})
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.First(&task, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns tasks starting within [From, To] when either bound is given
func (r *TaskRepository) List(ctx context.Context, page Page, filters TaskFilters, sort SortConfig) ([]domain.Task, int64, error) {
	var list []domain.Task
	var total int64
	err := r.with(ctx, func(db *gorm.DB) error {
		q := activeFilter(db.Model(&domain.Task{}), filters.Active)
		q = ownerScope(q, filters.UserID, "responsible_id")
		if filters.ResponsibleID != nil {
			q = q.Where("responsible_id = ?", *filters.ResponsibleID)
		}
		if filters.Status != nil {
			q = q.Where("status = ?", *filters.Status)
		}
		if filters.From != nil {
			q = q.Where("start_date >= ?", *filters.From)
		}
		if filters.To != nil {
			q = q.Where("start_date <= ?", *filters.To)
		}
		if filters.OpportunityID != nil {
			q = q.Where("opportunity_id = ?", *filters.OpportunityID)
		}
		if filters.QuoteID != nil {
			q = q.Where("quote_id = ?", *filters.QuoteID)
		}
		if filters.POID != nil {
			q = q.Where("po_id = ?", *filters.POID)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return page.apply(q).Order(orderBy(sort, taskSortFields, "start_date")).Find(&list).Error
	})
	return list, total, err
}
