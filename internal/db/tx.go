package db

import (
	"context"
	"database/sql"

	"lokapasar-be/internal/logger"

	"go.uber.org/zap"
)

// Queryer is the slice of database/sql shared by *sql.DB and *sql.Tx.
// Repository methods that participate in a multi-step workflow take a
// Queryer so the owning service decides the transaction boundary.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner is what services depend on; tests substitute a stub that
// runs fn without a real transaction.
type TxRunner interface {
	Transaction(ctx context.Context, fn func(q Queryer) error) error
}

type TxManager struct {
	db *sql.DB
}

func NewTxManager(conn *sql.DB) *TxManager {
	return &TxManager{db: conn}
}

// Transaction runs fn inside a single transaction. Any error from fn
// rolls the whole unit of work back; nothing is committed partially.
func (m *TxManager) Transaction(ctx context.Context, fn func(q Queryer) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logger.FromCtx(ctx).Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	committed = true
	return nil
}
