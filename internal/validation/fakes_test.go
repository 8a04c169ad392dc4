package validation_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
)

// finder serves FindActive from a map for any entity type
type finder[T any] map[uuid.UUID]*T

func (f finder[T]) FindActive(ctx context.Context, id uuid.UUID) (*T, error) {
	return f[id], nil
}

type knownCodes map[string]bool

func (k knownCodes) IsKnown(ctx context.Context, code string) (bool, error) {
	return k[code], nil
}

type companyDups struct {
	hit     bool
	exclude uuid.UUID
}

func (d *companyDups) HasDuplicate(ctx context.Context, name, city string, exclude uuid.UUID) (bool, error) {
	d.exclude = exclude
	return d.hit, nil
}

// contactDups reports a duplicate when an active contact with the same names exists
type contactDups struct {
	rows []*domain.Contact
}

func (d *contactDups) HasDuplicate(ctx context.Context, companyID uuid.UUID, fName, lName string, exclude uuid.UUID) (bool, error) {
	for _, c := range d.rows {
		if c.Active && c.CompanyID == companyID && c.FName == fName && c.LName == lName && c.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

type opportunityDups struct {
	hit   bool
	since time.Time
}

func (d *opportunityDups) HasDuplicate(ctx context.Context, companyID uuid.UUID, name string, since time.Time, exclude uuid.UUID) (bool, error) {
	d.since = since
	return d.hit, nil
}

type poDups struct {
	hit   bool
	calls int
}

func (d *poDups) HasDuplicate(ctx context.Context, companyID uuid.UUID, poNumber string, exclude uuid.UUID) (bool, error) {
	d.calls++
	return d.hit, nil
}

func newUser(mut func(u *domain.User)) *domain.User {
	u := &domain.User{FName: "Test", LName: "User", Access: true}
	u.ID = uuid.New()
	u.Active = true
	if mut != nil {
		mut(u)
	}
	return u
}

func newCompany(mut func(c *domain.Company)) *domain.Company {
	c := &domain.Company{Name: "Acme", City: "Monterrey", State: "NL", Region: "North", IsClient: true}
	c.ID = uuid.New()
	c.Active = true
	if mut != nil {
		mut(c)
	}
	return c
}

func newContact(companyID uuid.UUID) *domain.Contact {
	c := &domain.Contact{CompanyID: companyID, FName: "Ana", LName: "Lopez"}
	c.ID = uuid.New()
	c.Active = true
	return c
}
