package validation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
)

// Reference lookups return (nil, nil) when no active row matches.
// They are satisfied by the repositories.

type UserFinder interface {
	FindActive(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type CompanyFinder interface {
	FindActive(ctx context.Context, id uuid.UUID) (*domain.Company, error)
}

type ContactFinder interface {
	FindActive(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
}

type OpportunityFinder interface {
	FindActive(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error)
}

type OpportunityPartFinder interface {
	FindActive(ctx context.Context, id uuid.UUID) (*domain.OpportunityPart, error)
}

type QuoteFinder interface {
	FindActive(ctx context.Context, id uuid.UUID) (*domain.Quote, error)
}

type QuotePartItemFinder interface {
	FindActive(ctx context.Context, id uuid.UUID) (*domain.QuotePartItem, error)
}

type POFinder interface {
	FindActive(ctx context.Context, id uuid.UUID) (*domain.PO, error)
}

// CurrencyChecker reports whether a currency code has a rate row
type CurrencyChecker interface {
	IsKnown(ctx context.Context, code string) (bool, error)
}

// Duplicate lookups. exclude is uuid.Nil on create.

type CompanyDuplicates interface {
	HasDuplicate(ctx context.Context, name, city string, exclude uuid.UUID) (bool, error)
}

type ContactDuplicates interface {
	HasDuplicate(ctx context.Context, companyID uuid.UUID, fName, lName string, exclude uuid.UUID) (bool, error)
}

type OpportunityDuplicates interface {
	HasDuplicate(ctx context.Context, companyID uuid.UUID, name string, since time.Time, exclude uuid.UUID) (bool, error)
}

type PODuplicates interface {
	HasDuplicate(ctx context.Context, companyID uuid.UUID, poNumber string, exclude uuid.UUID) (bool, error)
}
