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

type CompanyService struct {
	companyRepo *repository.CompanyRepository
	validator   *validation.CompanyValidator
	logger      *zap.Logger
}

func NewCompanyService(
	companyRepo *repository.CompanyRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		validator:   validation.NewCompanyValidator(userRepo, companyRepo),
		logger:      logger,
	}
}

// List returns a page of companies. Users without the all-companies right only
// see companies they added or sell to.
func (s *CompanyService) List(ctx context.Context, page repository.Page, filters repository.CompanyFilters, sort repository.SortConfig) ([]domain.CompanyDTO, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !seesAll(actor, actor.AuthCompanyAll) {
		filters.OwnerID = &actor.ID
	}

	companies, total, err := s.companyRepo.List(ctx, page, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	dtos := make([]domain.CompanyDTO, len(companies))
	for i := range companies {
		dtos[i] = mapper.ToCompanyDTO(&companies[i])
	}
	return dtos, total, nil
}

func (s *CompanyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CompanyDTO, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "company")
	}
	dto := mapper.ToCompanyDTO(company)
	return &dto, nil
}

func (s *CompanyService) Create(ctx context.Context, body []byte) (*domain.CompanyDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionCreate, auth.EntityCompany, nil); err != nil {
		return nil, err
	}

	company, err := s.validator.Validate(ctx, validation.ModeCreate, actor, body, nil)
	if err != nil {
		return nil, err
	}
	stampCreated(&company.Audit, actor, time.Now().UTC())

	if err := s.companyRepo.Create(ctx, company); err != nil {
		s.logger.Error("failed to create company", zap.Error(err))
		return nil, writeError(err, "create company")
	}

	s.logger.Info("company created", zap.String("company_id", company.ID.String()), zap.String("name", company.Name))
	dto := mapper.ToCompanyDTO(company)
	return &dto, nil
}

func (s *CompanyService) Update(ctx context.Context, id uuid.UUID, body []byte) (*domain.CompanyDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.companyRepo.FindActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("company %w", ErrNotFound)
	}
	if err := gate(actor, auth.ActionUpdate, auth.EntityCompany, ownerOf(&existing.Audit)); err != nil {
		return nil, err
	}

	company, err := s.validator.Validate(ctx, validation.ModeUpdate, actor, body, existing)
	if err != nil {
		return nil, err
	}
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, writeError(err, "update company")
	}

	s.logger.Info("company updated", zap.String("company_id", company.ID.String()))
	dto := mapper.ToCompanyDTO(company)
	return &dto, nil
}

func (s *CompanyService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	company, err := s.companyRepo.FindActive(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get company: %w", err)
	}
	if company == nil {
		return fmt.Errorf("company %w", ErrNotFound)
	}
	if err := gate(actor, auth.ActionDelete, auth.EntityCompany, ownerOf(&company.Audit)); err != nil {
		return err
	}

	if err := stampDeleted(&company.Audit, actor, time.Now().UTC()); err != nil {
		return fmt.Errorf("company %w", err)
	}
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	s.logger.Info("company deleted", zap.String("company_id", company.ID.String()), zap.String("by", actor.ID.String()))
	return nil
}
