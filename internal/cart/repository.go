package cart

import (
	"context"
	"database/sql"

	"lokapasar-be/internal/db"
)

type Repository interface {
	GetCartItems(ctx context.Context, userID uint) ([]*CartItem, error)
	AddItem(ctx context.Context, item *CartItem) error
	RemoveItem(ctx context.Context, userID, itemID uint) error
	// ClearCart runs inside the payment-completion transaction so the
	// cart empties atomically with the order going PAID.
	ClearCart(ctx context.Context, q db.Queryer, userID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) GetCartItems(ctx context.Context, userID uint) ([]*CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, product_id, option_id, quantity, created_at, updated_at
		FROM carts
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*CartItem
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.OptionID,
			&item.Quantity, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

func (r *repository) AddItem(ctx context.Context, item *CartItem) error {
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (user_id, product_id, option_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id, option_id)
		DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity, updated_at = NOW()
	`, item.UserID, item.ProductID, item.OptionID, item.Quantity)

	return err
}

func (r *repository) RemoveItem(ctx context.Context, userID, itemID uint) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM carts WHERE id = $1 AND user_id = $2
	`, itemID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) ClearCart(ctx context.Context, q db.Queryer, userID uint) error {
	_, err := q.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
