package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/mapper"
	"github.com/straye-as/sales-api/internal/pricing"
	"github.com/straye-as/sales-api/internal/reconcile"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/validation"
	"go.uber.org/zap"
)

type POService struct {
	poRepo    *repository.PORepository
	tx        *repository.TxRunner
	locks     *DocumentLocks
	validator *validation.POValidator
	logger    *zap.Logger
}

func NewPOService(
	poRepo *repository.PORepository,
	companyRepo *repository.CompanyRepository,
	contactRepo *repository.ContactRepository,
	userRepo *repository.UserRepository,
	quoteRepo *repository.QuoteRepository,
	currencyRepo *repository.CurrencyRepository,
	tx *repository.TxRunner,
	locks *DocumentLocks,
	settings validation.Settings,
	logger *zap.Logger,
) *POService {
	return &POService{
		poRepo: poRepo,
		tx:     tx,
		locks:  locks,
		validator: validation.NewPOValidator(
			companyRepo, contactRepo, userRepo, quoteRepo.ItemFinder(), poRepo, currencyRepo, settings),
		logger: logger,
	}
}

// List returns a page of purchase orders, limited to the actor's own unless they may see all
func (s *POService) List(ctx context.Context, page repository.Page, filters repository.POFilters, sort repository.SortConfig) ([]domain.PODTO, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !seesAll(actor, actor.AuthPOAll) {
		filters.OwnerID = &actor.ID
	}

	list, total, err := s.poRepo.List(ctx, page, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	dtos := make([]domain.PODTO, len(list))
	for i := range list {
		dtos[i] = mapper.ToPODTO(&list[i])
	}
	return dtos, total, nil
}

func (s *POService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PODTO, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "purchase order")
	}
	dto := mapper.ToPODTO(po)
	return &dto, nil
}

func (s *POService) Create(ctx context.Context, body []byte) (*domain.PODTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionCreate, auth.EntityPO, nil); err != nil {
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

	s.logger.Info("purchase order created",
		zap.String("po_id", draft.ID.String()),
		zap.String("po_number", draft.PONumber),
		zap.String("company_id", draft.CompanyID.String()))
	return s.GetByID(ctx, draft.ID)
}

func (s *POService) Update(ctx context.Context, id uuid.UUID, body []byte) (*domain.PODTO, error) {
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
	if err := gate(actor, auth.ActionUpdate, auth.EntityPO, ownerOf(&existing.Audit)); err != nil {
		return nil, err
	}

	draft, err := s.validator.Validate(ctx, validation.ModeUpdate, actor, body, existing)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, draft, false); err != nil {
		return nil, err
	}

	s.logger.Info("purchase order updated", zap.String("po_id", id.String()))
	return s.GetByID(ctx, id)
}

// ChangeStatus exists for symmetry with quotes; every explicit PO transition is rejected
func (s *POService) ChangeStatus(ctx context.Context, id uuid.UUID, body []byte) (*domain.PODTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	po, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionUpdate, auth.EntityPO, ownerOf(&po.Audit)); err != nil {
		return nil, err
	}
	if _, err := validation.POStatusChange(po, body); err != nil {
		return nil, err
	}
	dto := mapper.ToPODTO(po)
	return &dto, nil
}

func (s *POService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	po, err := s.poRepo.FindActive(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get purchase order: %w", err)
	}
	if po == nil {
		return fmt.Errorf("purchase order %w", ErrNotFound)
	}
	if err := gate(actor, auth.ActionDelete, auth.EntityPO, ownerOf(&po.Audit)); err != nil {
		return err
	}
	if err := stampDeleted(&po.Audit, actor, time.Now().UTC()); err != nil {
		return fmt.Errorf("purchase order %w", err)
	}
	if err := s.poRepo.Update(ctx, po); err != nil {
		return fmt.Errorf("failed to delete purchase order: %w", err)
	}

	s.logger.Info("purchase order deleted", zap.String("po_id", id.String()), zap.String("by", actor.ID.String()))
	return nil
}

func (s *POService) loadActive(ctx context.Context, id uuid.UUID) (*domain.PO, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "purchase order")
	}
	if po.IsDeleted() {
		return nil, fmt.Errorf("purchase order %w", ErrNotFound)
	}
	return po, nil
}

// save writes the header, reconciles provided items, then reprices from the stored items
func (s *POService) save(ctx context.Context, actor *domain.User, draft *domain.PO, create bool) error {
	items := draft.Items
	draft.Items, draft.Company, draft.Buyer = nil, nil, nil
	now := time.Now().UTC()

	return s.tx.Run(ctx, func(ctx context.Context) error {
		if create {
			if err := s.poRepo.Create(ctx, draft); err != nil {
				return writeError(err, "create purchase order")
			}
		} else if err := s.poRepo.Update(ctx, draft); err != nil {
			return writeError(err, "update purchase order")
		}

		if items != nil {
			opts := reconcile.Options[domain.POItem]{
				ID: func(it *domain.POItem) uuid.UUID { return it.ID },
				Place: func(it *domain.POItem, pl reconcile.Placement) {
					it.POID = pl.ParentID
					it.Order = pl.Order
					if pl.New {
						it.AddUserID, it.AddDate = pl.ActorID, now
					}
				},
			}
			if _, err := reconcile.Reconcile(ctx, s.poRepo.Items(), draft.ID, items, actor.ID, opts); err != nil {
				return fmt.Errorf("failed to save purchase order items: %w", err)
			}
		}

		stored, err := s.poRepo.Items().ListByParent(ctx, draft.ID)
		if err != nil {
			return fmt.Errorf("failed to load purchase order items: %w", err)
		}
		draft.Items = stored
		pricing.RecalculatePO(draft)
		draft.Items = nil
		if err := s.poRepo.Update(ctx, draft); err != nil {
			return fmt.Errorf("failed to save purchase order figures: %w", err)
		}
		return nil
	})
}
