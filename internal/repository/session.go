package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type txKey struct{}

// txState is the transaction carried in a context. One transaction owns one
// connection, so statements issued through it are serialized.
type txState struct {
	mu sync.Mutex
	db *gorm.DB
}

// TxRunner runs a unit of work inside one database transaction.
// Repositories called with the context passed to fn join that transaction.
type TxRunner struct {
	db *gorm.DB
}

// NewTxRunner creates a new TxRunner
func NewTxRunner(db *gorm.DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run commits when fn returns nil and rolls back otherwise.
// A context that already carries a transaction reuses it.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, &txState{db: tx}))
	})
}

// InTx reports whether ctx carries a transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

// session is embedded by every repository
type session struct {
	db *gorm.DB
}

// with runs fn against the transaction in ctx, or the pool when there is none
func (s session) with(ctx context.Context, fn func(db *gorm.DB) error) error {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.mu.Lock()
		defer st.mu.Unlock()
		return fn(st.db.WithContext(ctx))
	}
	return fn(s.db.WithContext(ctx))
}
