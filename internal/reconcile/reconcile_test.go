package reconcile_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	ID       uuid.UUID
	ParentID uuid.UUID
	Order    int
	Name     string
	AddUser  uuid.UUID
	Children []*part
}

type memStore struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*part
	creates int
	updates int
	deletes []uuid.UUID
	failOn  string
}

func newMemStore(parentID uuid.UUID, names ...string) (*memStore, []*part) {
	s := &memStore{rows: map[uuid.UUID]*part{}}
	var out []*part
	for i, n := range names {
		p := &part{ID: uuid.New(), ParentID: parentID, Order: i + 1, Name: n}
		s.rows[p.ID] = p
		out = append(out, p)
	}
	return s, out
}

func (s *memStore) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*part
	for _, p := range s.rows {
		if p.ParentID == parentID {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *memStore) Create(ctx context.Context, row *part) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row.Name == s.failOn {
		return errors.New("boom")
	}
	row.ID = uuid.New()
	copied := *row
	s.rows[row.ID] = &copied
	s.creates++
	return nil
}

func (s *memStore) Update(ctx context.Context, row *part) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row.Name == s.failOn {
		return errors.New("boom")
	}
	copied := *row
	s.rows[row.ID] = &copied
	s.updates++
	return nil
}

func (s *memStore) Delete(ctx context.Context, row *part) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, row.ID)
	s.deletes = append(s.deletes, row.ID)
	return nil
}

func (s *memStore) ordered(parentID uuid.UUID) []*part {
	rows, _ := s.ListByParent(context.Background(), parentID)
	return rows
}

func partOptions() reconcile.Options[part] {
	return reconcile.Options[part]{
		ID: func(p *part) uuid.UUID { return p.ID },
		Place: func(p *part, pl reconcile.Placement) {
			p.ParentID = pl.ParentID
			p.Order = pl.Order
			if pl.New {
				p.AddUser = pl.ActorID
			}
		},
	}
}

func TestReconcile_IdenticalListIsStable(t *testing.T) {
	parent := uuid.New()
	store, stored := newMemStore(parent, "A", "B", "C")

	desired := []*part{{ID: stored[0].ID, Name: "A"}, {ID: stored[1].ID, Name: "B"}, {ID: stored[2].ID, Name: "C"}}
	res, err := reconcile.Reconcile(context.Background(), store, parent, desired, uuid.New(), partOptions())
	require.NoError(t, err)

	assert.Equal(t, reconcile.Result{Updated: 3}, res)
	assert.Empty(t, store.deletes)
	assert.Zero(t, store.creates)

	rows := store.ordered(parent)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, stored[i].ID, row.ID)
		assert.Equal(t, i+1, row.Order)
	}
}

func TestReconcile_Diff(t *testing.T) {
	parent := uuid.New()
	actor := uuid.New()
	store, stored := newMemStore(parent, "A", "B")
	a, b := stored[0], stored[1]

	desired := []*part{{ID: b.ID, Name: "B"}, {Name: "New"}}
	res, err := reconcile.Reconcile(context.Background(), store, parent, desired, actor, partOptions())
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{Created: 1, Updated: 1, Deleted: 1}, res)

	assert.Equal(t, []uuid.UUID{a.ID}, store.deletes)
	rows := store.ordered(parent)
	require.Len(t, rows, 2)
	assert.Equal(t, b.ID, rows[0].ID)
	assert.Equal(t, 1, rows[0].Order)
	assert.Equal(t, "New", rows[1].Name)
	assert.Equal(t, 2, rows[1].Order)
	assert.Equal(t, actor, rows[1].AddUser)
	assert.NotEqual(t, uuid.Nil, desired[1].ID, "created row learns its id")
}

func TestReconcile_EmptyListDeletesAll(t *testing.T) {
	parent := uuid.New()
	store, _ := newMemStore(parent, "A", "B")

	res, err := reconcile.Reconcile(context.Background(), store, parent, []*part{}, uuid.New(), partOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	assert.Empty(t, store.ordered(parent))
}

func TestReconcile_CreatedRowsAreNotDeleted(t *testing.T) {
	parent := uuid.New()
	store, _ := newMemStore(parent)

	res, err := reconcile.Reconcile(context.Background(), store, parent, []*part{{Name: "X"}, {Name: "Y"}}, uuid.New(), partOptions())
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{Created: 2}, res)
	assert.Len(t, store.ordered(parent), 2)
}

func TestReconcile_UnknownIDFailsBeforeWriting(t *testing.T) {
	parent := uuid.New()
	store, _ := newMemStore(parent, "A")

	_, err := reconcile.Reconcile(context.Background(), store, parent, []*part{{ID: uuid.New(), Name: "Z"}}, uuid.New(), partOptions())
	require.ErrorIs(t, err, reconcile.ErrUnknownChild)
	assert.Empty(t, store.deletes)
	assert.Len(t, store.ordered(parent), 1)
}

func TestReconcile_FailureSettlesSiblings(t *testing.T) {
	parent := uuid.New()
	store, stored := newMemStore(parent, "A", "B")
	store.failOn = "bad"

	desired := []*part{{ID: stored[0].ID, Name: "A"}, {Name: "bad"}, {Name: "good"}}
	_, err := reconcile.Reconcile(context.Background(), store, parent, desired, uuid.New(), partOptions())
	require.Error(t, err)

	assert.Equal(t, 1, store.creates, "the healthy sibling still ran")
	assert.Equal(t, []uuid.UUID{stored[1].ID}, store.deletes)
}

func TestReconcile_NestedAndOnDelete(t *testing.T) {
	parent := uuid.New()
	store, stored := newMemStore(parent, "A")
	childStore, _ := newMemStore(uuid.Nil)

	var mu sync.Mutex
	var deleted []string
	opts := partOptions()
	opts.Nested = func(ctx context.Context, p *part) error {
		_, err := reconcile.Reconcile(ctx, childStore, p.ID, p.Children, uuid.New(), partOptions())
		return err
	}
	opts.OnDelete = func(ctx context.Context, p *part) error {
		mu.Lock()
		defer mu.Unlock()
		deleted = append(deleted, p.Name)
		return nil
	}

	desired := []*part{{Name: "N", Children: []*part{{Name: "n1"}, {Name: "n2"}}}}
	_, err := reconcile.Reconcile(context.Background(), store, parent, desired, uuid.New(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, deleted)
	assert.NotEqual(t, stored[0].ID, desired[0].ID)
	children := childStore.ordered(desired[0].ID)
	require.Len(t, children, 2)
	assert.Equal(t, "n1", children[0].Name)
	assert.Equal(t, 2, children[1].Order)
}

func TestReconcile_NaturalKey(t *testing.T) {
	parent := uuid.New()
	store, stored := newMemStore(parent, "u1", "u2")

	opts := partOptions()
	opts.Key = func(p *part) string { return p.Name }
	opts.SetID = func(p *part, id uuid.UUID) { p.ID = id }

	// ids sent by the client are ignored, the key decides
	desired := []*part{{ID: uuid.New(), Name: "u2"}, {Name: "u3"}, {Name: "u2"}}
	res, err := reconcile.Reconcile(context.Background(), store, parent, desired, uuid.New(), opts)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{Created: 1, Updated: 1, Deleted: 1}, res)

	assert.Equal(t, []uuid.UUID{stored[0].ID}, store.deletes)
	assert.Equal(t, stored[1].ID, desired[0].ID)
	rows := store.ordered(parent)
	require.Len(t, rows, 2)
	assert.Equal(t, "u2", rows[0].Name)
	assert.Equal(t, "u3", rows[1].Name)
}

func TestReconcile_RequiresID(t *testing.T) {
	store, _ := newMemStore(uuid.Nil)
	_, err := reconcile.Reconcile(context.Background(), store, uuid.Nil, nil, uuid.Nil, reconcile.Options[part]{})
	assert.Error(t, err)
}
