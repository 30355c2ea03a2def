package inventory

import (
	"context"
	"database/sql"
	"errors"

	"lokapasar-be/internal/db"
	"lokapasar-be/internal/logger"

	"go.uber.org/zap"
)

// Guard is the only path allowed to read or mutate a stock counter for
// a stock decision. Every method locks the product (or option) row
// with SELECT ... FOR UPDATE inside the caller's transaction; the lock
// is released when that transaction commits or rolls back, so two
// concurrent checkouts of the same product serialize and can never
// oversell.
type Guard interface {
	// WithLockedStock locks the stock row, passes the current stock to
	// fn and persists whatever fn returns.
	WithLockedStock(ctx context.Context, q db.Queryer, productID uint, optionID *uint, fn func(stock int) (int, error)) error

	// Check verifies stock >= qty under the lock without mutating.
	Check(ctx context.Context, q db.Queryer, productID uint, optionID *uint, qty int) error

	// Decrement subtracts qty, failing with ErrInsufficientStock when
	// stock < qty.
	Decrement(ctx context.Context, q db.Queryer, productID uint, optionID *uint, qty int) error

	// Restore adds qty back unconditionally; cancellation and return
	// always restore exactly what was deducted.
	Restore(ctx context.Context, q db.Queryer, productID uint, optionID *uint, qty int) error
}

type guard struct{}

func NewGuard() Guard {
	return &guard{}
}

func (g *guard) WithLockedStock(ctx context.Context, q db.Queryer, productID uint, optionID *uint, fn func(stock int) (int, error)) error {
	table, id := "products", productID
	if optionID != nil {
		table, id = "product_options", *optionID
	}

	var stock int
	err := q.QueryRowContext(ctx,
		`SELECT stock FROM `+table+` WHERE id = $1 FOR UPDATE`, id,
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStockRowNotFound
	}
	if err != nil {
		return err
	}

	newStock, err := fn(stock)
	if err != nil {
		return err
	}

	if newStock == stock {
		return nil
	}

	_, err = q.ExecContext(ctx,
		`UPDATE `+table+` SET stock = $1, updated_at = NOW() WHERE id = $2`, newStock, id,
	)
	if err != nil {
		return err
	}

	logger.FromCtx(ctx).Debug("stock updated under lock",
		zap.String("table", table),
		zap.Uint("id", id),
		zap.Int("from", stock),
		zap.Int("to", newStock),
	)

	return nil
}

func (g *guard) Check(ctx context.Context, q db.Queryer, productID uint, optionID *uint, qty int) error {
	return g.WithLockedStock(ctx, q, productID, optionID, func(stock int) (int, error) {
		if stock < qty {
			return 0, ErrInsufficientStock
		}
		return stock, nil
	})
}

func (g *guard) Decrement(ctx context.Context, q db.Queryer, productID uint, optionID *uint, qty int) error {
	return g.WithLockedStock(ctx, q, productID, optionID, func(stock int) (int, error) {
		if stock < qty {
			return 0, ErrInsufficientStock
		}
		return stock - qty, nil
	})
}

func (g *guard) Restore(ctx context.Context, q db.Queryer, productID uint, optionID *uint, qty int) error {
	return g.WithLockedStock(ctx, q, productID, optionID, func(stock int) (int, error) {
		return stock + qty, nil
	})
}
