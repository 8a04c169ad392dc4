package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/domain"
)

// actorFrom returns the acting user carried by ctx
func actorFrom(ctx context.Context) (*domain.User, error) {
	u := auth.ActorFromContext(ctx)
	if u == nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// gate runs the authorization engine. A denial is returned as *auth.ForbiddenError.
func gate(actor *domain.User, action auth.Action, entity auth.EntityType, ownerID *uuid.UUID) error {
	return auth.Authorize(actor, action, entity, ownerID).Err()
}

func ownerOf(a *domain.Audit) *uuid.UUID {
	id := a.AddUserID
	return &id
}

func stampCreated(a *domain.Audit, actor *domain.User, now time.Time) {
	a.Active = true
	a.AddUserID = actor.ID
	a.AddDate = now
	a.DelUserID = nil
	a.DelDate = nil
}

// stampDeleted soft-deletes a once. A row already deleted reports ErrNotFound.
func stampDeleted(a *domain.Audit, actor *domain.User, now time.Time) error {
	if a.IsDeleted() {
		return ErrNotFound
	}
	id := actor.ID
	a.Active = false
	a.DelUserID = &id
	a.DelDate = &now
	return nil
}

// seesAll reports whether list scoping is lifted for the actor
func seesAll(actor *domain.User, allFlag bool) bool {
	return actor.IsRoleSystem || actor.IsRoleAdmin || allFlag
}

// DocumentLocks serializes writes per document id. Writes to different
// documents do not contend.
type DocumentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*docLock
}

type docLock struct {
	mu   sync.Mutex
	refs int
}

// NewDocumentLocks creates an empty lock table
func NewDocumentLocks() *DocumentLocks {
	return &DocumentLocks{locks: make(map[uuid.UUID]*docLock)}
}

// Lock blocks until the document lock for id is held and returns its release func
func (l *DocumentLocks) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	dl, ok := l.locks[id]
	if !ok {
		dl = &docLock{}
		l.locks[id] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()
	return func() {
		dl.mu.Unlock()
		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
