package sqlstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// BunTransactionRunner scopes a unit of work to a database transaction.
type BunTransactionRunner struct {
	db *bun.DB
}

func NewBunTransactionRunner(db *bun.DB) *BunTransactionRunner {
	return &BunTransactionRunner{db: db}
}

func (r *BunTransactionRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("sqlstore: transaction runner is not configured")
	}
	if fn == nil {
		return nil
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, _ bun.Tx) error {
		return fn(ctx)
	})
}
