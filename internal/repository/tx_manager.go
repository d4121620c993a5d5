package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "gorm_tx"

// TransactionManager manages database transactions via context injection.
// A RunInTx call made with a context that already carries a transaction joins it.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewTransactionManager returns a manager that bounds row-lock waits with lockTimeout (0 = server default).
func NewTransactionManager(db *gorm.DB, lockTimeout time.Duration) TransactionManager {
	return &transactionManager{db: db, lockTimeout: lockTimeout}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
	return translateError(err)
}

// GetDB extracts the transaction DB from context if present, otherwise returns root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
