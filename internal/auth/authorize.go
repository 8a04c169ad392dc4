package auth

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
)

// Action is the operation being authorized
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ActionFromMethod maps an HTTP method onto an Action. Unknown methods map to create.
func ActionFromMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead:
		return ActionRead
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionCreate
	}
}

// EntityType is the closed set of entities the engine knows how to gate
type EntityType int

const (
	EntityUser EntityType = iota
	EntityCompany
	EntityContact
	EntityOpportunity
	EntityQuote
	EntityPO
	EntityTask
)

type flagFunc func(u *domain.User) bool

type entityRules struct {
	plural string
	// override grants the action before the permission flags are consulted
	override func(u *domain.User, a Action) bool
	add      flagFunc
	mod      flagFunc
	del      flagFunc
}

func never(*domain.User) bool { return false }

func always(*domain.User) bool { return true }

// adminOrCreator lets admins do anything and sales or estimators create
func adminOrCreator(u *domain.User, a Action) bool {
	if u.IsRoleAdmin {
		return true
	}
	return a == ActionCreate && (u.IsRoleSales || u.IsRoleEstimator)
}

var rules = map[EntityType]entityRules{
	EntityUser: {
		plural:   "users",
		override: func(*domain.User, Action) bool { return false },
		add:      func(u *domain.User) bool { return u.AuthUserAdd },
		mod:      func(u *domain.User) bool { return u.AuthUserMod },
		del:      func(u *domain.User) bool { return u.AuthUserDel },
	},
	EntityCompany: {
		plural:   "companies",
		override: adminOrCreator,
		add:      func(u *domain.User) bool { return u.AuthCompanyAdd },
		mod:      func(u *domain.User) bool { return u.AuthCompanyMod },
		del:      func(u *domain.User) bool { return u.AuthCompanyDel },
	},
	EntityContact: {
		plural:   "contacts",
		override: adminOrCreator,
		add:      func(u *domain.User) bool { return u.AuthContactAdd },
		mod:      func(u *domain.User) bool { return u.AuthContactMod },
		del:      func(u *domain.User) bool { return u.AuthContactDel },
	},
	EntityOpportunity: {
		plural:   "opportunities",
		override: adminOrCreator,
		add:      func(u *domain.User) bool { return u.AuthOpportunityAdd },
		mod:      func(u *domain.User) bool { return u.AuthOpportunityMod },
		del:      func(u *domain.User) bool { return u.AuthOpportunityDel },
	},
	EntityQuote: {
		plural:   "quotes",
		override: func(u *domain.User, _ Action) bool { return u.IsRoleAdmin || u.IsRoleEstimator },
		add:      func(u *domain.User) bool { return u.AuthQuoteAdd },
		mod:      func(u *domain.User) bool { return u.AuthQuoteMod },
		del:      func(u *domain.User) bool { return u.AuthQuoteDel },
	},
	EntityPO: {
		plural:   "pos",
		override: func(u *domain.User, _ Action) bool { return u.IsRoleAdmin },
		add:      func(u *domain.User) bool { return u.AuthPOAdd },
		mod:      func(u *domain.User) bool { return u.AuthPOMod },
		del:      func(u *domain.User) bool { return u.AuthPODel },
	},
	EntityTask: {
		plural:   "tasks",
		override: func(u *domain.User, _ Action) bool { return u.IsRoleAdmin || u.IsRolePM },
		add:      always,
		mod:      never,
		del:      never,
	},
}

// Plural returns the display name used in denial messages
func (e EntityType) Plural() string {
	return rules[e].plural
}

func (e EntityType) String() string {
	return e.Plural()
}

// Decision is the outcome of an authorization check
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(a Action, e EntityType) Decision {
	return Decision{Reason: fmt.Sprintf("Not authorized to %s %s", a, e.Plural())}
}

// Err returns nil when allowed, otherwise a *ForbiddenError carrying the reason
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &ForbiddenError{Reason: d.Reason}
}

// ForbiddenError is a denied Decision turned into an error
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// Authorize decides whether user may perform action on an entity of the given type.
// ownerID is the addUserId of the target record and may be nil for creates and lists.
func Authorize(user *domain.User, action Action, entity EntityType, ownerID *uuid.UUID) Decision {
	r, ok := rules[entity]
	if !ok || user == nil {
		return deny(action, entity)
	}

	if user.IsRoleSystem {
		return allow()
	}

	// Only admins and project managers act on users, and still need the user flags
	if entity == EntityUser && !user.IsRoleAdmin && !user.IsRolePM {
		return deny(action, entity)
	}

	if r.override(user, action) {
		return allow()
	}

	var allowed bool
	switch action {
	case ActionCreate:
		allowed = r.add(user)
	case ActionRead:
		allowed = true
	default:
		if ownerID != nil && *ownerID == user.ID {
			allowed = true
		} else if action == ActionUpdate {
			allowed = r.mod(user)
		} else {
			allowed = r.del(user)
		}
	}

	if !allowed {
		return deny(action, entity)
	}
	return allow()
}
