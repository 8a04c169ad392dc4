package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/mapper"
	"github.com/straye-as/sales-api/internal/reconcile"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/validation"
	"go.uber.org/zap"
)

type OpportunityService struct {
	opportunityRepo *repository.OpportunityRepository
	tx              *repository.TxRunner
	locks           *DocumentLocks
	validator       *validation.OpportunityValidator
	logger          *zap.Logger
}

func NewOpportunityService(
	opportunityRepo *repository.OpportunityRepository,
	companyRepo *repository.CompanyRepository,
	userRepo *repository.UserRepository,
	contactRepo *repository.ContactRepository,
	currencyRepo *repository.CurrencyRepository,
	tx *repository.TxRunner,
	locks *DocumentLocks,
	settings validation.Settings,
	logger *zap.Logger,
) *OpportunityService {
	return &OpportunityService{
		opportunityRepo: opportunityRepo,
		tx:              tx,
		locks:           locks,
		validator:       validation.NewOpportunityValidator(companyRepo, userRepo, contactRepo, opportunityRepo, currencyRepo, settings),
		logger:          logger,
	}
}

// List returns a page of opportunities, limited to the actor's own unless they may see all
func (s *OpportunityService) List(ctx context.Context, page repository.Page, filters repository.OpportunityFilters, sort repository.SortConfig) ([]domain.OpportunityDTO, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !seesAll(actor, actor.AuthOpportunityAll) {
		filters.OwnerID = &actor.ID
	}

	list, total, err := s.opportunityRepo.List(ctx, page, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list opportunities: %w", err)
	}
	dtos := make([]domain.OpportunityDTO, len(list))
	for i := range list {
		dtos[i] = mapper.ToOpportunityDTO(&list[i])
	}
	return dtos, total, nil
}

func (s *OpportunityService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OpportunityDTO, error) {
	o, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "opportunity")
	}
	dto := mapper.ToOpportunityDTO(o)
	return &dto, nil
}

func (s *OpportunityService) Create(ctx context.Context, body []byte) (*domain.OpportunityDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionCreate, auth.EntityOpportunity, nil); err != nil {
		return nil, err
	}

	draft, err := s.validator.Validate(ctx, validation.ModeCreate, actor, body, nil)
	if err != nil {
		return nil, err
	}
	stampCreated(&draft.Audit, actor, time.Now().UTC())
	draft.ID = uuid.New()

	if err := s.save(ctx, actor, draft, true); err != nil {
		return nil, err
	}

	s.logger.Info("opportunity created",
		zap.String("opportunity_id", draft.ID.String()),
		zap.String("company_id", draft.CompanyID.String()),
		zap.String("name", draft.Name))
	return s.GetByID(ctx, draft.ID)
}

func (s *OpportunityService) Update(ctx context.Context, id uuid.UUID, body []byte) (*domain.OpportunityDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	existing, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionUpdate, auth.EntityOpportunity, ownerOf(&existing.Audit)); err != nil {
		return nil, err
	}

	draft, err := s.validator.Validate(ctx, validation.ModeUpdate, actor, body, existing)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, draft, false); err != nil {
		return nil, err
	}

	s.logger.Info("opportunity updated", zap.String("opportunity_id", id.String()))
	return s.GetByID(ctx, id)
}

func (s *OpportunityService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	o, err := s.opportunityRepo.FindActive(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get opportunity: %w", err)
	}
	if o == nil {
		return fmt.Errorf("opportunity %w", ErrNotFound)
	}
	if err := gate(actor, auth.ActionDelete, auth.EntityOpportunity, ownerOf(&o.Audit)); err != nil {
		return err
	}
	if err := stampDeleted(&o.Audit, actor, time.Now().UTC()); err != nil {
		return fmt.Errorf("opportunity %w", err)
	}
	if err := s.opportunityRepo.Update(ctx, o); err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}

	s.logger.Info("opportunity deleted", zap.String("opportunity_id", id.String()), zap.String("by", actor.ID.String()))
	return nil
}

func (s *OpportunityService) loadActive(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	o, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "opportunity")
	}
	if o.IsDeleted() {
		return nil, fmt.Errorf("opportunity %w", ErrNotFound)
	}
	return o, nil
}

// save writes the header and reconciles the provided child collections in one transaction
func (s *OpportunityService) save(ctx context.Context, actor *domain.User, draft *domain.Opportunity, create bool) error {
	parts, contacts, proposals := draft.Parts, draft.Contacts, draft.Proposals
	draft.Parts, draft.Contacts, draft.Proposals = nil, nil, nil

	return s.tx.Run(ctx, func(ctx context.Context) error {
		if create {
			if err := s.opportunityRepo.Create(ctx, draft); err != nil {
				return writeError(err, "create opportunity")
			}
		} else if err := s.opportunityRepo.Update(ctx, draft); err != nil {
			return writeError(err, "update opportunity")
		}

		now := time.Now().UTC()
		if parts != nil {
			if _, err := reconcile.Reconcile(ctx, s.opportunityRepo.Parts(), draft.ID, parts, actor.ID, opportunityPartOptions(now)); err != nil {
				return fmt.Errorf("failed to save opportunity parts: %w", err)
			}
		}
		if contacts != nil {
			if _, err := reconcile.Reconcile(ctx, s.opportunityRepo.Contacts(), draft.ID, contacts, actor.ID, opportunityContactOptions); err != nil {
				return fmt.Errorf("failed to save opportunity contacts: %w", err)
			}
		}
		if proposals != nil {
			if _, err := reconcile.Reconcile(ctx, s.opportunityRepo.Proposals(), draft.ID, proposals, actor.ID, opportunityProposalOptions); err != nil {
				return fmt.Errorf("failed to save opportunity proposals: %w", err)
			}
		}
		return nil
	})
}

func opportunityPartOptions(now time.Time) reconcile.Options[domain.OpportunityPart] {
	return reconcile.Options[domain.OpportunityPart]{
		ID: func(p *domain.OpportunityPart) uuid.UUID { return p.ID },
		Place: func(p *domain.OpportunityPart, pl reconcile.Placement) {
			p.OpportunityID = pl.ParentID
			p.Order = pl.Order
			if pl.New {
				p.AddUserID = pl.ActorID
				p.AddDate = now
			}
		},
	}
}

var opportunityContactOptions = reconcile.Options[domain.OpportunityContact]{
	ID: func(c *domain.OpportunityContact) uuid.UUID { return c.ID },
	Place: func(c *domain.OpportunityContact, pl reconcile.Placement) {
		c.OpportunityID = pl.ParentID
		c.Order = pl.Order
	},
}

// proposals are matched on the proposal user; a repeated user keeps its row
var opportunityProposalOptions = reconcile.Options[domain.OpportunityProposal]{
	ID:    func(p *domain.OpportunityProposal) uuid.UUID { return p.ID },
	Key:   func(p *domain.OpportunityProposal) string { return p.ProposalUserID.String() },
	SetID: func(p *domain.OpportunityProposal, id uuid.UUID) { p.ID = id },
	Place: func(p *domain.OpportunityProposal, pl reconcile.Placement) {
		p.OpportunityID = pl.ParentID
	},
}
