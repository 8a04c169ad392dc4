package validation

import (
	"context"
	"fmt"

	"github.com/straye-as/sales-api/internal/domain"
)

type taskInput struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	ResponsibleID *string `json:"responsibleId" validate:"omitempty,uuid"`
	StartDate     *Date   `json:"startDate"`
	SetStatus     *int    `json:"setStatus" validate:"omitempty,oneof=10 20 100 200 250 251"`
	Description   *string `json:"description"`
	Progress      *int    `json:"progress" validate:"omitempty,min=0,max=100"`
	EndDate       *Date   `json:"endDate"`
	DueDate       *Date   `json:"dueDate"`
	OpportunityID *string `json:"opportunityId" validate:"omitempty,eq=|uuid"`
	QuoteID       *string `json:"quoteId" validate:"omitempty,eq=|uuid"`
	POID          *string `json:"poId" validate:"omitempty,eq=|uuid"`
}

var taskOmit = []string{"id", "status", "strStatus", "addUser", "responsible", "opportunity", "quote", "po"}

// TaskValidator validates task writes
type TaskValidator struct {
	users         UserFinder
	opportunities OpportunityFinder
	quotes        QuoteFinder
	pos           POFinder
}

// NewTaskValidator creates a task validator
func NewTaskValidator(users UserFinder, opportunities OpportunityFinder, quotes QuoteFinder, pos POFinder) *TaskValidator {
	return &TaskValidator{users: users, opportunities: opportunities, quotes: quotes, pos: pos}
}

// Validate returns the task to persist. existing is required on update.
func (v *TaskValidator) Validate(ctx context.Context, mode Mode, actor *domain.User, raw []byte, existing *domain.Task) (*domain.Task, error) {
	var in taskInput
	if err := decode(raw, &in, nil, taskOmit); err != nil {
		return nil, err
	}
	if err := check(&in); err != nil {
		return nil, err
	}
	if mode == ModeCreate {
		if err := requireFields(
			requiredField("name", in.Name != nil),
			requiredField("responsibleId", in.ResponsibleID != nil),
			requiredField("startDate", in.StartDate.Ptr() != nil),
		); err != nil {
			return nil, err
		}
	}

	draft := &domain.Task{Status: domain.TaskStatusScheduled}
	if mode == ModeUpdate {
		copied := *existing
		draft = &copied
	}
	setString(&draft.Name, in.Name)
	setString(&draft.Description, in.Description)
	if in.ResponsibleID != nil {
		draft.ResponsibleID = mustID(*in.ResponsibleID)
	}
	if start := in.StartDate.Ptr(); start != nil {
		draft.StartDate = *start
	}
	if in.SetStatus != nil {
		draft.Status = domain.TaskStatus(*in.SetStatus)
	}
	if in.Progress != nil {
		draft.Progress = *in.Progress
	}
	setDate(&draft.EndDate, in.EndDate)
	setDate(&draft.DueDate, in.DueDate)
	if in.OpportunityID != nil {
		draft.OpportunityID = refID(in.OpportunityID)
	}
	if in.QuoteID != nil {
		draft.QuoteID = refID(in.QuoteID)
	}
	if in.POID != nil {
		draft.POID = refID(in.POID)
	}

	links := 0
	for _, id := range []bool{draft.OpportunityID != nil, draft.QuoteID != nil, draft.POID != nil} {
		if id {
			links++
		}
	}
	if links > 1 {
		return nil, reject("Only one of opportunityId, quoteId, or poId can be provided")
	}

	responsible, err := v.users.FindActive(ctx, draft.ResponsibleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responsible user: %w", err)
	}
	if responsible == nil {
		return nil, reject(`"responsibleId" is invalid`)
	}

	switch {
	case draft.OpportunityID != nil:
		o, err := v.opportunities.FindActive(ctx, *draft.OpportunityID)
		if err != nil {
			return nil, fmt.Errorf("failed to load opportunity: %w", err)
		}
		if o == nil {
			return nil, reject(`"opportunityId" is invalid`)
		}
	case draft.QuoteID != nil:
		q, err := v.quotes.FindActive(ctx, *draft.QuoteID)
		if err != nil {
			return nil, fmt.Errorf("failed to load quote: %w", err)
		}
		if q == nil {
			return nil, reject(`"quoteId" is invalid`)
		}
	case draft.POID != nil:
		po, err := v.pos.FindActive(ctx, *draft.POID)
		if err != nil {
			return nil, fmt.Errorf("failed to load po: %w", err)
		}
		if po == nil {
			return nil, reject(`"poId" is invalid`)
		}
	}

	return draft, nil
}
