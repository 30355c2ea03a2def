package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lokapasar-be/internal/db"
)

type Repository interface {
	// CreateOrder inserts the order and its item snapshot in the
	// caller's transaction. Populates o.ID and the item IDs.
	CreateOrder(ctx context.Context, q db.Queryer, o *Order) error

	// GetOrderForUpdate loads the order with items, locking the orders
	// row so concurrent transitions on the same order serialize.
	GetOrderForUpdate(ctx context.Context, q db.Queryer, orderID uint) (*Order, error)

	GetOrderDetail(ctx context.Context, orderID uint) (*Order, error)
	GetIDByOrderNumber(ctx context.Context, orderNumber string) (uint, error)
	GetOrders(ctx context.Context, userID uint, status *OrderStatus, limit, offset int) ([]*Order, error)

	UpdateStatus(ctx context.Context, q db.Queryer, orderID uint, status OrderStatus) error
	MarkPaid(ctx context.Context, q db.Queryer, orderID uint, paidAt time.Time) error
	MarkCancelled(ctx context.Context, q db.Queryer, orderID uint, reason string) error
	SetTrackingNumber(ctx context.Context, q db.Queryer, orderID uint, trackingNumber string) error
	SetDelivered(ctx context.Context, q db.Queryer, orderID uint) error
	SetConfirmed(ctx context.Context, q db.Queryer, orderID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

const orderColumns = `
	id, order_number, user_id, status, total_amount, coupon_discount_amount,
	shipping_fee, final_amount, user_coupon_id, payment_method, shipping_address,
	tracking_number, cancel_reason, paid_at, shipped_at, delivered_at,
	confirmed_at, cancelled_at, created_at, updated_at`

func scanOrder(row *sql.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.TotalAmount, &o.CouponDiscountAmount,
		&o.ShippingFee, &o.FinalAmount, &o.UserCouponID, &o.PaymentMethod, &o.ShippingAddress,
		&o.TrackingNumber, &o.CancelReason, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt,
		&o.ConfirmedAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt,
	)
}

func (r *repository) CreateOrder(ctx context.Context, q db.Queryer, o *Order) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO orders (order_number, user_id, status, total_amount, coupon_discount_amount,
			shipping_fee, final_amount, user_coupon_id, payment_method, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`,
		o.OrderNumber, o.UserID, o.Status, o.TotalAmount, o.CouponDiscountAmount,
		o.ShippingFee, o.FinalAmount, o.UserCouponID, o.PaymentMethod, o.ShippingAddress,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := q.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, option_id, seller_id, category_id,
				product_name, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`,
			item.OrderID, item.ProductID, item.OptionID, item.SellerID, item.CategoryID,
			item.ProductName, item.Price, item.Quantity,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) GetOrderForUpdate(ctx context.Context, q db.Queryer, orderID uint) (*Order, error) {
	var o Order
	err := scanOrder(q.QueryRowContext(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID), &o)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *repository) GetOrderDetail(ctx context.Context, orderID uint) (*Order, error) {
	var o Order
	err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE id = $1
	`, orderID), &o)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, r.db, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *repository) loadItems(ctx context.Context, q db.Queryer, orderID uint) ([]OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, option_id, seller_id, category_id,
			product_name, price, quantity, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.OptionID, &item.SellerID,
			&item.CategoryID, &item.ProductName, &item.Price, &item.Quantity, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) GetIDByOrderNumber(ctx context.Context, orderNumber string) (uint, error) {
	var id uint
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE order_number = $1
	`, orderNumber).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrOrderNotFound
	}
	return id, err
}

func (r *repository) GetOrders(ctx context.Context, userID uint, status *OrderStatus, limit, offset int) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE user_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.TotalAmount, &o.CouponDiscountAmount,
			&o.ShippingFee, &o.FinalAmount, &o.UserCouponID, &o.PaymentMethod, &o.ShippingAddress,
			&o.TrackingNumber, &o.CancelReason, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt,
			&o.ConfirmedAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, q db.Queryer, orderID uint, status OrderStatus) error {
	_, err := q.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1
	`, orderID, status)
	return err
}

func (r *repository) MarkPaid(ctx context.Context, q db.Queryer, orderID uint, paidAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE orders SET status = $2, paid_at = $3, updated_at = NOW() WHERE id = $1
	`, orderID, StatusPaid, paidAt)
	return err
}

func (r *repository) MarkCancelled(ctx context.Context, q db.Queryer, orderID uint, reason string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, cancel_reason = $3, cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, orderID, StatusCancelled, reason)
	return err
}

func (r *repository) SetTrackingNumber(ctx context.Context, q db.Queryer, orderID uint, trackingNumber string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, tracking_number = $3, shipped_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, orderID, StatusShipped, trackingNumber)
	return err
}

func (r *repository) SetDelivered(ctx context.Context, q db.Queryer, orderID uint) error {
	_, err := q.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, delivered_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, orderID, StatusDelivered)
	return err
}

func (r *repository) SetConfirmed(ctx context.Context, q db.Queryer, orderID uint) error {
	_, err := q.ExecContext(ctx, `
		UPDATE orders
		SET confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND confirmed_at IS NULL
	`, orderID)
	return err
}
