// Package reconcile brings a persisted child collection in line with the ordered
// list a client sent for it.
//
// Stored rows missing from the desired list are deleted, rows present are updated
// and renumbered, and rows without an id are created. The set of rows to delete is
// taken from what was stored before anything is written.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownChild is returned when a desired row carries an id that is not stored under the parent
var ErrUnknownChild = errors.New("child does not belong to parent")

// Store persists the children of one parent
type Store[T any] interface {
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]*T, error)
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, row *T) error
	Delete(ctx context.Context, row *T) error
}

// Placement is written onto every row before it is saved
type Placement struct {
	ParentID uuid.UUID
	// Order is the 1-based position in the desired list
	Order   int
	ActorID uuid.UUID
	New     bool
}

// Options describe how rows of one child type are identified and stamped
type Options[T any] struct {
	// ID returns the surrogate id. uuid.Nil marks a row to create.
	ID func(row *T) uuid.UUID

	// Key switches matching to a natural key, for junction rows.
	// SetID is then required so a matched row takes over the stored id.
	Key   func(row *T) string
	SetID func(row *T, id uuid.UUID)

	Place func(row *T, p Placement)

	// Nested runs after the row is saved and its id is known
	Nested func(ctx context.Context, row *T) error

	// OnDelete runs after a stored row has been deleted
	OnDelete func(ctx context.Context, row *T) error
}

// Result counts the operations issued
type Result struct {
	Created int
	Updated int
	Deleted int
}

type op int

const (
	opCreate op = iota
	opUpdate
	opDelete
)

type task[T any] struct {
	op    op
	row   *T
	order int
}

// Reconcile applies desired onto the rows stored under parentID.
// All operations run concurrently; every one settles before the first error is returned.
func Reconcile[T any](ctx context.Context, store Store[T], parentID uuid.UUID, desired []*T, actorID uuid.UUID, opts Options[T]) (Result, error) {
	if opts.ID == nil {
		return Result{}, errors.New("reconcile: ID func is required")
	}
	if opts.Key != nil && opts.SetID == nil {
		return Result{}, errors.New("reconcile: SetID is required with Key")
	}

	stored, err := store.ListByParent(ctx, parentID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list children: %w", err)
	}

	tasks, err := plan(stored, desired, opts)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, t := range tasks {
		switch t.op {
		case opCreate:
			res.Created++
		case opUpdate:
			res.Updated++
		case opDelete:
			res.Deleted++
		}
	}

	var g errgroup.Group
	for _, t := range tasks {
		g.Go(func() error {
			return run(ctx, store, parentID, actorID, opts, t)
		})
	}
	return res, g.Wait()
}

// plan matches desired rows against stored ones. It does not touch the store.
func plan[T any](stored, desired []*T, opts Options[T]) ([]task[T], error) {
	byID := make(map[uuid.UUID]*T, len(stored))
	byKey := make(map[string]*T, len(stored))
	for _, row := range stored {
		byID[opts.ID(row)] = row
		if opts.Key != nil {
			byKey[opts.Key(row)] = row
		}
	}

	kept := make(map[uuid.UUID]bool, len(desired))
	tasks := make([]task[T], 0, len(desired)+len(stored))
	for i, row := range desired {
		order := i + 1

		if opts.Key != nil {
			if prev, ok := byKey[opts.Key(row)]; ok {
				id := opts.ID(prev)
				if kept[id] {
					continue
				}
				opts.SetID(row, id)
				kept[id] = true
				tasks = append(tasks, task[T]{op: opUpdate, row: row, order: order})
				continue
			}
			opts.SetID(row, uuid.Nil)
			tasks = append(tasks, task[T]{op: opCreate, row: row, order: order})
			continue
		}

		id := opts.ID(row)
		if id == uuid.Nil {
			tasks = append(tasks, task[T]{op: opCreate, row: row, order: order})
			continue
		}
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownChild, id)
		}
		kept[id] = true
		tasks = append(tasks, task[T]{op: opUpdate, row: row, order: order})
	}

	for _, row := range stored {
		if !kept[opts.ID(row)] {
			tasks = append(tasks, task[T]{op: opDelete, row: row})
		}
	}
	return tasks, nil
}

func run[T any](ctx context.Context, store Store[T], parentID, actorID uuid.UUID, opts Options[T], t task[T]) error {
	if t.op == opDelete {
		if err := store.Delete(ctx, t.row); err != nil {
			return fmt.Errorf("failed to delete child %s: %w", opts.ID(t.row), err)
		}
		if opts.OnDelete != nil {
			return opts.OnDelete(ctx, t.row)
		}
		return nil
	}

	if opts.Place != nil {
		opts.Place(t.row, Placement{ParentID: parentID, Order: t.order, ActorID: actorID, New: t.op == opCreate})
	}
	if t.op == opCreate {
		if err := store.Create(ctx, t.row); err != nil {
			return fmt.Errorf("failed to create child: %w", err)
		}
	} else if err := store.Update(ctx, t.row); err != nil {
		return fmt.Errorf("failed to update child %s: %w", opts.ID(t.row), err)
	}

	if opts.Nested != nil {
		return opts.Nested(ctx, t.row)
	}
	return nil
}
