package service

import (
	"context"
	"fmt"
	"sync"
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

// QuoteService handles quotes. Every write to a quote holds its document lock and
// runs reconcile, recalculation and the header save in one transaction.
type QuoteService struct {
	quoteRepo       *repository.QuoteRepository
	opportunityRepo *repository.OpportunityRepository
	numbers         *NumberSequenceService
	rates           RateSource
	tx              *repository.TxRunner
	locks           *DocumentLocks
	validator       *validation.QuoteValidator
	logger          *zap.Logger
}

func NewQuoteService(
	quoteRepo *repository.QuoteRepository,
	opportunityRepo *repository.OpportunityRepository,
	contactRepo *repository.ContactRepository,
	userRepo *repository.UserRepository,
	currencyRepo *repository.CurrencyRepository,
	numbers *NumberSequenceService,
	rates RateSource,
	tx *repository.TxRunner,
	locks *DocumentLocks,
	settings validation.Settings,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		quoteRepo:       quoteRepo,
		opportunityRepo: opportunityRepo,
		numbers:         numbers,
		rates:           rates,
		tx:              tx,
		locks:           locks,
		validator: validation.NewQuoteValidator(
			opportunityRepo, opportunityRepo.PartFinder(), contactRepo, userRepo, currencyRepo, settings),
		logger: logger,
	}
}

// List returns a page of quotes, limited to the actor's own unless they may see all
func (s *QuoteService) List(ctx context.Context, page repository.Page, filters repository.QuoteFilters, sort repository.SortConfig) ([]domain.QuoteDTO, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !seesAll(actor, actor.AuthQuoteAll) {
		filters.OwnerID = &actor.ID
	}

	list, total, err := s.quoteRepo.List(ctx, page, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quotes: %w", err)
	}
	dtos := make([]domain.QuoteDTO, len(list))
	for i := range list {
		dtos[i] = mapper.ToQuoteDTO(&list[i])
	}
	return dtos, total, nil
}

// GetByID returns the quote with its whole tree
func (s *QuoteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	q, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "quote")
	}
	dto := mapper.ToQuoteDTO(q)
	return &dto, nil
}

func (s *QuoteService) Create(ctx context.Context, body []byte) (*domain.QuoteDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionCreate, auth.EntityQuote, nil); err != nil {
		return nil, err
	}

	draft, err := s.validator.Validate(ctx, validation.ModeCreate, actor, body, nil)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	stampCreated(&draft.Audit, actor, now)
	draft.ID = uuid.New()

	err = s.tx.Run(ctx, func(ctx context.Context) error {
		number, err := s.numbers.NextQuoteNumber(ctx, now)
		if err != nil {
			return err
		}
		draft.QuoteNumber = number

		if err := s.saveTree(ctx, actor, draft, true); err != nil {
			return err
		}
		_, err = s.recalculate(ctx, draft.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote created",
		zap.String("quote_id", draft.ID.String()),
		zap.String("quote_number", draft.QuoteNumber),
		zap.String("opportunity_id", draft.OpportunityID.String()))
	return s.GetByID(ctx, draft.ID)
}

func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, body []byte) (*domain.QuoteDTO, error) {
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
	if err := gate(actor, auth.ActionUpdate, auth.EntityQuote, ownerOf(&existing.Audit)); err != nil {
		return nil, err
	}

	draft, err := s.validator.Validate(ctx, validation.ModeUpdate, actor, body, existing)
	if err != nil {
		return nil, err
	}

	err = s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.saveTree(ctx, actor, draft, false); err != nil {
			return err
		}
		_, err := s.recalculate(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote updated", zap.String("quote_id", id.String()))
	return s.GetByID(ctx, id)
}

// Recalculate reprices the quote with the current rates
func (s *QuoteService) Recalculate(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	q, err := s.quoteRepo.FindActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if q == nil {
		return nil, fmt.Errorf("quote %w", ErrNotFound)
	}
	if err := gate(actor, auth.ActionUpdate, auth.EntityQuote, ownerOf(&q.Audit)); err != nil {
		return nil, err
	}

	var out *domain.Quote
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		out, err = s.recalculate(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := mapper.ToQuoteDTO(out)
	return &dto, nil
}

// ChangeStatus applies an operator-requested status change
func (s *QuoteService) ChangeStatus(ctx context.Context, id uuid.UUID, body []byte) (*domain.QuoteDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	q, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionUpdate, auth.EntityQuote, ownerOf(&q.Audit)); err != nil {
		return nil, err
	}

	to, err := validation.QuoteStatusChange(actor, q, body)
	if err != nil {
		return nil, err
	}
	from := q.Status
	q.Status = to
	if err := s.quoteRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to update quote status: %w", err)
	}

	s.logger.Info("quote status changed",
		zap.String("quote_id", id.String()),
		zap.String("from", from.String()),
		zap.String("to", to.String()))
	dto := mapper.ToQuoteDTO(q)
	return &dto, nil
}

// Revise copies a presented quote into a new revision and closes the original
func (s *QuoteService) Revise(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionCreate, auth.EntityQuote, nil); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	old, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionUpdate, auth.EntityQuote, ownerOf(&old.Audit)); err != nil {
		return nil, err
	}
	if err := validation.QuoteRevisable(old); err != nil {
		return nil, err
	}

	rev := reviseQuote(old, actor, time.Now().UTC())
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.saveTree(ctx, actor, rev, true); err != nil {
			return err
		}
		if _, err := s.recalculate(ctx, rev.ID); err != nil {
			return err
		}
		old.Status = domain.QuoteStatusClosedAsRevision
		if err := s.quoteRepo.Update(ctx, old); err != nil {
			return fmt.Errorf("failed to close revised quote: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote revised",
		zap.String("quote_id", old.ID.String()),
		zap.String("revision_id", rev.ID.String()),
		zap.String("quote_number", rev.QuoteNumber))
	return s.GetByID(ctx, rev.ID)
}

func (s *QuoteService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	q, err := s.loadActive(ctx, id)
	if err != nil {
		return err
	}
	if err := gate(actor, auth.ActionDelete, auth.EntityQuote, ownerOf(&q.Audit)); err != nil {
		return err
	}
	if err := stampDeleted(&q.Audit, actor, time.Now().UTC()); err != nil {
		return fmt.Errorf("quote %w", err)
	}

	sourced := newIDSet()
	for _, p := range q.Parts {
		sourced.add(p.OpportunityPartID)
	}
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.quoteRepo.Update(ctx, q); err != nil {
			return fmt.Errorf("failed to delete quote: %w", err)
		}
		return s.syncQuoted(ctx, sourced.list())
	})
	if err != nil {
		return err
	}

	s.logger.Info("quote deleted", zap.String("quote_id", id.String()), zap.String("by", actor.ID.String()))
	return nil
}

func (s *QuoteService) loadActive(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	q, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "quote")
	}
	if q.IsDeleted() {
		return nil, fmt.Errorf("quote %w", ErrNotFound)
	}
	return q, nil
}

// saveTree writes the header, then reconciles the contacts and the part tree that
// were provided. Opportunity parts gaining or losing a quote part get their flag resynced.
func (s *QuoteService) saveTree(ctx context.Context, actor *domain.User, draft *domain.Quote, create bool) error {
	parts, contacts := draft.Parts, draft.Contacts
	draft.Parts, draft.Contacts, draft.Opportunity = nil, nil, nil

	if create {
		if err := s.quoteRepo.Create(ctx, draft); err != nil {
			return writeError(err, "create quote")
		}
	} else if err := s.quoteRepo.Update(ctx, draft); err != nil {
		return writeError(err, "update quote")
	}

	if contacts != nil {
		if _, err := reconcile.Reconcile(ctx, s.quoteRepo.Contacts(), draft.ID, contacts, actor.ID, quoteContactOptions); err != nil {
			return fmt.Errorf("failed to save quote contacts: %w", err)
		}
	}
	if parts == nil {
		return nil
	}

	sourced := newIDSet()
	for _, p := range parts {
		sourced.add(p.OpportunityPartID)
	}
	now := time.Now().UTC()
	opts := reconcile.Options[domain.QuotePart]{
		ID: func(p *domain.QuotePart) uuid.UUID { return p.ID },
		Place: func(p *domain.QuotePart, pl reconcile.Placement) {
			p.QuoteID = pl.ParentID
			p.Order = pl.Order
			if pl.New {
				p.AddUserID, p.AddDate = pl.ActorID, now
			}
		},
		Nested: func(ctx context.Context, p *domain.QuotePart) error {
			if p.Items == nil {
				return nil
			}
			_, err := reconcile.Reconcile(ctx, s.quoteRepo.Items(), p.ID, p.Items, actor.ID, s.itemOptions(actor, now))
			return err
		},
		OnDelete: func(ctx context.Context, p *domain.QuotePart) error {
			sourced.add(p.OpportunityPartID)
			return nil
		},
	}
	if _, err := reconcile.Reconcile(ctx, s.quoteRepo.Parts(), draft.ID, parts, actor.ID, opts); err != nil {
		return fmt.Errorf("failed to save quote parts: %w", err)
	}
	return s.syncQuoted(ctx, sourced.list())
}

func (s *QuoteService) itemOptions(actor *domain.User, now time.Time) reconcile.Options[domain.QuotePartItem] {
	costOpts := reconcile.Options[domain.QuotePartItemCost]{
		ID: func(c *domain.QuotePartItemCost) uuid.UUID { return c.ID },
		Place: func(c *domain.QuotePartItemCost, pl reconcile.Placement) {
			c.QuotePartItemID = pl.ParentID
			c.Order = pl.Order
			if pl.New {
				c.AddUserID, c.AddDate = pl.ActorID, now
			}
		},
	}
	return reconcile.Options[domain.QuotePartItem]{
		ID: func(it *domain.QuotePartItem) uuid.UUID { return it.ID },
		Place: func(it *domain.QuotePartItem, pl reconcile.Placement) {
			it.QuotePartID = pl.ParentID
			it.Order = pl.Order
			if pl.New {
				it.AddUserID, it.AddDate = pl.ActorID, now
			}
		},
		Nested: func(ctx context.Context, it *domain.QuotePartItem) error {
			if it.Costs == nil {
				return nil
			}
			_, err := reconcile.Reconcile(ctx, s.quoteRepo.Costs(), it.ID, it.Costs, actor.ID, costOpts)
			return err
		},
	}
}

var quoteContactOptions = reconcile.Options[domain.QuoteContact]{
	ID: func(c *domain.QuoteContact) uuid.UUID { return c.ID },
	Place: func(c *domain.QuoteContact, pl reconcile.Placement) {
		c.QuoteID = pl.ParentID
		c.Order = pl.Order
	},
}

// syncQuoted sets each opportunity part's flag from whether an active quote still uses it
func (s *QuoteService) syncQuoted(ctx context.Context, partIDs []uuid.UUID) error {
	for _, id := range partIDs {
		n, err := s.quoteRepo.CountPartsFor(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count quote parts: %w", err)
		}
		if err := s.opportunityRepo.SetPartQuoted(ctx, id, n > 0); err != nil {
			return fmt.Errorf("failed to flag opportunity part: %w", err)
		}
	}
	return nil
}

// recalculate reloads the stored tree, reprices it and saves the item and header
// figures. It must run inside the write transaction.
func (s *QuoteService) recalculate(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	q, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "quote")
	}
	rates, err := s.rates.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get currency rates: %w", err)
	}
	if err := pricing.RecalculateQuote(q, rates); err != nil {
		return nil, fmt.Errorf("failed to recalculate quote %s: %w", q.QuoteNumber, err)
	}

	for _, part := range q.Parts {
		for _, item := range part.Items {
			if err := s.quoteRepo.Items().Update(ctx, item); err != nil {
				return nil, fmt.Errorf("failed to save item figures: %w", err)
			}
		}
	}
	if err := s.quoteRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to save quote figures: %w", err)
	}

	if q.Status != domain.QuoteStatusCancelled && q.Status != domain.QuoteStatusClosedAsRevision {
		total := pricing.QuoteFigures(q).Total
		if err := s.opportunityRepo.SetAmountQuoted(ctx, q.OpportunityID, total); err != nil {
			return nil, fmt.Errorf("failed to update quoted amount: %w", err)
		}
	}
	return q, nil
}

// reviseQuote copies old into a new pending quote with fresh ids throughout
func reviseQuote(old *domain.Quote, actor *domain.User, now time.Time) *domain.Quote {
	rev := *old
	rev.ID = uuid.New()
	rev.Status = domain.QuoteStatusPending
	rev.QuoteNumber = RevisionNumber(old.QuoteNumber)
	revised := old.ID
	rev.RevisedQuoteID = &revised
	rev.Opportunity = nil
	stampCreated(&rev.Audit, actor, now)

	rev.Contacts = make([]*domain.QuoteContact, 0, len(old.Contacts))
	for _, c := range old.Contacts {
		rev.Contacts = append(rev.Contacts, &domain.QuoteContact{ContactID: c.ContactID})
	}

	rev.Parts = make([]*domain.QuotePart, 0, len(old.Parts))
	for _, p := range old.Parts {
		part := *p
		part.ID = uuid.Nil
		part.Items = make([]*domain.QuotePartItem, 0, len(p.Items))
		for _, it := range p.Items {
			item := *it
			item.ID = uuid.Nil
			item.Costs = make([]*domain.QuotePartItemCost, 0, len(it.Costs))
			for _, c := range it.Costs {
				cost := *c
				cost.ID = uuid.Nil
				item.Costs = append(item.Costs, &cost)
			}
			part.Items = append(part.Items, &item)
		}
		rev.Parts = append(rev.Parts, &part)
	}
	return &rev
}

// idSet collects opportunity part ids from concurrent reconcile callbacks
type idSet struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

func newIDSet() *idSet {
	return &idSet{ids: make(map[uuid.UUID]struct{})}
}

func (s *idSet) add(id *uuid.UUID) {
	if id == nil {
		return
	}
	s.mu.Lock()
	s.ids[*id] = struct{}{}
	s.mu.Unlock()
}

func (s *idSet) list() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}
