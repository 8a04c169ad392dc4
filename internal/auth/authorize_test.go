package auth_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

var (
	allActions  = []auth.Action{auth.ActionCreate, auth.ActionRead, auth.ActionUpdate, auth.ActionDelete}
	allEntities = []auth.EntityType{
		auth.EntityUser, auth.EntityCompany, auth.EntityContact, auth.EntityOpportunity,
		auth.EntityQuote, auth.EntityPO, auth.EntityTask,
	}
)

func newUser(mut func(u *domain.User)) *domain.User {
	u := &domain.User{FName: "Test", LName: "User", Access: true}
	u.ID = uuid.New()
	u.Active = true
	if mut != nil {
		mut(u)
	}
	return u
}

func TestAuthorize_SystemUserAlwaysAllowed(t *testing.T) {
	system := newUser(func(u *domain.User) { u.IsRoleSystem = true })
	other := uuid.New()

	for _, e := range allEntities {
		for _, a := range allActions {
			d := auth.Authorize(system, a, e, &other)
			assert.True(t, d.Allowed, "%s %s", a, e)
			assert.NoError(t, d.Err())
		}
	}
}

func TestAuthorize_PlainUserCannotCreateCompany(t *testing.T) {
	plain := newUser(nil)

	d := auth.Authorize(plain, auth.ActionCreate, auth.EntityCompany, nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Not authorized to create companies", d.Reason)

	var forbidden *auth.ForbiddenError
	assert.ErrorAs(t, d.Err(), &forbidden)
}

func TestAuthorize_Rules(t *testing.T) {
	owner := uuid.New()

	admin := newUser(func(u *domain.User) { u.IsRoleAdmin = true })
	sales := newUser(func(u *domain.User) { u.IsRoleSales = true })
	estimator := newUser(func(u *domain.User) { u.IsRoleEstimator = true })
	pm := newUser(func(u *domain.User) { u.IsRolePM = true })
	flagged := newUser(func(u *domain.User) {
		u.AuthCompanyAdd, u.AuthCompanyMod = true, true
		u.AuthQuoteDel = true
		u.AuthPOAdd = true
		u.AuthUserAdd = true
	})
	userManager := newUser(func(u *domain.User) {
		u.IsRolePM = true
		u.AuthUserDel = true
	})
	userAdmin := newUser(func(u *domain.User) {
		u.IsRoleAdmin = true
		u.AuthUserAdd = true
	})
	self := newUser(nil)
	selfID := self.ID

	tests := []struct {
		name    string
		user    *domain.User
		action  auth.Action
		entity  auth.EntityType
		ownerID *uuid.UUID
		allowed bool
		reason  string
	}{
		{"admin deletes any company", admin, auth.ActionDelete, auth.EntityCompany, &owner, true, ""},
		{"admin updates opportunity", admin, auth.ActionUpdate, auth.EntityOpportunity, &owner, true, ""},
		{"sales creates contact", sales, auth.ActionCreate, auth.EntityContact, nil, true, ""},
		{"estimator creates opportunity", estimator, auth.ActionCreate, auth.EntityOpportunity, nil, true, ""},
		{"sales cannot update foreign company", sales, auth.ActionUpdate, auth.EntityCompany, &owner, false, "Not authorized to update companies"},
		{"sales updates own company", sales, auth.ActionUpdate, auth.EntityCompany, &sales.ID, true, ""},
		{"estimator updates any quote", estimator, auth.ActionUpdate, auth.EntityQuote, &owner, true, ""},
		{"sales cannot create quote", sales, auth.ActionCreate, auth.EntityQuote, nil, false, "Not authorized to create quotes"},
		{"estimator cannot delete po", estimator, auth.ActionDelete, auth.EntityPO, &owner, false, "Not authorized to delete pos"},
		{"admin deletes po", admin, auth.ActionDelete, auth.EntityPO, &owner, true, ""},
		{"pm updates task", pm, auth.ActionUpdate, auth.EntityTask, &owner, true, ""},
		{"anyone creates task", self, auth.ActionCreate, auth.EntityTask, nil, true, ""},
		{"owner deletes own task", self, auth.ActionDelete, auth.EntityTask, &selfID, true, ""},
		{"non owner cannot update task", self, auth.ActionUpdate, auth.EntityTask, &owner, false, "Not authorized to update tasks"},
		{"add flag allows create", flagged, auth.ActionCreate, auth.EntityCompany, nil, true, ""},
		{"mod flag allows update", flagged, auth.ActionUpdate, auth.EntityCompany, &owner, true, ""},
		{"mod flag does not allow delete", flagged, auth.ActionDelete, auth.EntityCompany, &owner, false, "Not authorized to delete companies"},
		{"del flag allows delete", flagged, auth.ActionDelete, auth.EntityQuote, &owner, true, ""},
		{"po add flag", flagged, auth.ActionCreate, auth.EntityPO, nil, true, ""},
		{"owner updates own contact", self, auth.ActionUpdate, auth.EntityContact, &selfID, true, ""},
		{"read is open", self, auth.ActionRead, auth.EntityOpportunity, nil, true, ""},
		{"pm without flags cannot delete users", pm, auth.ActionDelete, auth.EntityUser, &owner, false, "Not authorized to delete users"},
		{"pm without flags cannot update users", pm, auth.ActionUpdate, auth.EntityUser, &owner, false, "Not authorized to update users"},
		{"admin without flags cannot create users", admin, auth.ActionCreate, auth.EntityUser, nil, false, "Not authorized to create users"},
		{"pm with del flag deletes users", userManager, auth.ActionDelete, auth.EntityUser, &owner, true, ""},
		{"admin with add flag creates users", userAdmin, auth.ActionCreate, auth.EntityUser, nil, true, ""},
		{"pm updates users they added", pm, auth.ActionUpdate, auth.EntityUser, &pm.ID, true, ""},
		{"pm reads users", pm, auth.ActionRead, auth.EntityUser, nil, true, ""},
		{"user flags do not unlock users", flagged, auth.ActionCreate, auth.EntityUser, nil, false, "Not authorized to create users"},
		{"sales cannot edit users", sales, auth.ActionUpdate, auth.EntityUser, &sales.ID, false, "Not authorized to update users"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := auth.Authorize(tc.user, tc.action, tc.entity, tc.ownerID)
			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestAuthorize_NilUser(t *testing.T) {
	d := auth.Authorize(nil, auth.ActionRead, auth.EntityCompany, nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Not authorized to read companies", d.Reason)
}

func TestActionFromMethod(t *testing.T) {
	assert.Equal(t, auth.ActionRead, auth.ActionFromMethod(http.MethodGet))
	assert.Equal(t, auth.ActionCreate, auth.ActionFromMethod(http.MethodPost))
	assert.Equal(t, auth.ActionUpdate, auth.ActionFromMethod(http.MethodPut))
	assert.Equal(t, auth.ActionUpdate, auth.ActionFromMethod(http.MethodPatch))
	assert.Equal(t, auth.ActionDelete, auth.ActionFromMethod(http.MethodDelete))
}

func TestEntityType_Plural(t *testing.T) {
	assert.Equal(t, "opportunities", auth.EntityOpportunity.Plural())
	assert.Equal(t, "pos", auth.EntityPO.Plural())
	assert.Equal(t, "users", auth.EntityUser.String())
}
