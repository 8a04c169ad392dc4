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

type ContactService struct {
	contactRepo *repository.ContactRepository
	validator   *validation.ContactValidator
	logger      *zap.Logger
}

func NewContactService(
	contactRepo *repository.ContactRepository,
	companyRepo *repository.CompanyRepository,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		validator:   validation.NewContactValidator(companyRepo, contactRepo),
		logger:      logger,
	}
}

func (s *ContactService) List(ctx context.Context, page repository.Page, filters repository.ContactFilters) ([]domain.ContactDTO, int64, error) {
	contacts, total, err := s.contactRepo.List(ctx, page, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, total, nil
}

func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContactDTO, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "contact")
	}
	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) Create(ctx context.Context, body []byte) (*domain.ContactDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionCreate, auth.EntityContact, nil); err != nil {
		return nil, err
	}

	contact, err := s.validator.Validate(ctx, validation.ModeCreate, actor, body, nil)
	if err != nil {
		return nil, err
	}
	stampCreated(&contact.Audit, actor, time.Now().UTC())

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, writeError(err, "create contact")
	}

	s.logger.Info("contact created", zap.String("contact_id", contact.ID.String()), zap.String("name", contact.FullName()))
	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) Update(ctx context.Context, id uuid.UUID, body []byte) (*domain.ContactDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.contactRepo.FindActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("contact %w", ErrNotFound)
	}
	if err := gate(actor, auth.ActionUpdate, auth.EntityContact, ownerOf(&existing.Audit)); err != nil {
		return nil, err
	}

	contact, err := s.validator.Validate(ctx, validation.ModeUpdate, actor, body, existing)
	if err != nil {
		return nil, err
	}
	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, writeError(err, "update contact")
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	contact, err := s.contactRepo.FindActive(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return fmt.Errorf("contact %w", ErrNotFound)
	}
	if err := gate(actor, auth.ActionDelete, auth.EntityContact, ownerOf(&contact.Audit)); err != nil {
		return err
	}

	if err := stampDeleted(&contact.Audit, actor, time.Now().UTC()); err != nil {
		return fmt.Errorf("contact %w", err)
	}
	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	s.logger.Info("contact deleted", zap.String("contact_id", contact.ID.String()), zap.String("by", actor.ID.String()))
	return nil
}
