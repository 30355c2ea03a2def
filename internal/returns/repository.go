package returns

import (
	"context"
	"database/sql"
	"errors"

	"lokapasar-be/internal/db"
)

type Repository interface {
	// CreateReturnRequest inserts the request and its items in the
	// caller's transaction. Populates rr.ID and the item IDs.
	CreateReturnRequest(ctx context.Context, q db.Queryer, rr *ReturnRequest) error

	// GetReturnForUpdate locks the return_requests row so concurrent
	// admin transitions serialize.
	GetReturnForUpdate(ctx context.Context, q db.Queryer, returnID uint) (*ReturnRequest, error)

	GetReturnDetail(ctx context.Context, returnID uint) (*ReturnRequest, error)

	// HasOpenReturn reports whether the order already has a return
	// request in a non-terminal state.
	HasOpenReturn(ctx context.Context, q db.Queryer, orderID uint) (bool, error)

	UpdateStatus(ctx context.Context, q db.Queryer, returnID uint, status ReturnStatus) error
	MarkRejected(ctx context.Context, q db.Queryer, returnID uint, reason string) error
	MarkCompleted(ctx context.Context, q db.Queryer, returnID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

const returnColumns = `
	id, order_id, user_id, status, reason_category, detailed_reason,
	item_refund_amount, shipping_refund_amount, total_refund_amount,
	reject_reason, refunded_at, created_at, updated_at`

func (r *repository) CreateReturnRequest(ctx context.Context, q db.Queryer, rr *ReturnRequest) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO return_requests (order_id, user_id, status, reason_category, detailed_reason,
			item_refund_amount, shipping_refund_amount, total_refund_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`,
		rr.OrderID, rr.UserID, rr.Status, rr.ReasonCategory, rr.DetailedReason,
		rr.ItemRefundAmount, rr.ShippingRefundAmount, rr.TotalRefundAmount,
	).Scan(&rr.ID, &rr.CreatedAt)
	if err != nil {
		return err
	}

	for i := range rr.Items {
		item := &rr.Items[i]
		item.ReturnRequestID = rr.ID
		err := q.QueryRowContext(ctx, `
			INSERT INTO return_items (return_request_id, order_item_id, product_id, option_id, quantity, refund_amount)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`,
			item.ReturnRequestID, item.OrderItemID, item.ProductID, item.OptionID,
			item.Quantity, item.RefundAmount,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) GetReturnForUpdate(ctx context.Context, q db.Queryer, returnID uint) (*ReturnRequest, error) {
	var rr ReturnRequest
	err := q.QueryRowContext(ctx, `
		SELECT`+returnColumns+`
		FROM return_requests
		WHERE id = $1
		FOR UPDATE
	`, returnID).Scan(
		&rr.ID, &rr.OrderID, &rr.UserID, &rr.Status, &rr.ReasonCategory, &rr.DetailedReason,
		&rr.ItemRefundAmount, &rr.ShippingRefundAmount, &rr.TotalRefundAmount,
		&rr.RejectReason, &rr.RefundedAt, &rr.CreatedAt, &rr.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReturnNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, q, rr.ID)
	if err != nil {
		return nil, err
	}
	rr.Items = items

	return &rr, nil
}

func (r *repository) GetReturnDetail(ctx context.Context, returnID uint) (*ReturnRequest, error) {
	var rr ReturnRequest
	err := r.db.QueryRowContext(ctx, `
		SELECT`+returnColumns+`
		FROM return_requests
		WHERE id = $1
	`, returnID).Scan(
		&rr.ID, &rr.OrderID, &rr.UserID, &rr.Status, &rr.ReasonCategory, &rr.DetailedReason,
		&rr.ItemRefundAmount, &rr.ShippingRefundAmount, &rr.TotalRefundAmount,
		&rr.RejectReason, &rr.RefundedAt, &rr.CreatedAt, &rr.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReturnNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, r.db, rr.ID)
	if err != nil {
		return nil, err
	}
	rr.Items = items

	return &rr, nil
}

func (r *repository) loadItems(ctx context.Context, q db.Queryer, returnID uint) ([]ReturnItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, return_request_id, order_item_id, product_id, option_id, quantity, refund_amount
		FROM return_items
		WHERE return_request_id = $1
		ORDER BY id
	`, returnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ReturnItem
	for rows.Next() {
		var item ReturnItem
		if err := rows.Scan(
			&item.ID, &item.ReturnRequestID, &item.OrderItemID, &item.ProductID,
			&item.OptionID, &item.Quantity, &item.RefundAmount,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) HasOpenReturn(ctx context.Context, q db.Queryer, orderID uint) (bool, error) {
	var open bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM return_requests
			WHERE order_id = $1 AND status IN ($2, $3)
		)
	`, orderID, StatusRequested, StatusApproved).Scan(&open)
	return open, err
}

func (r *repository) UpdateStatus(ctx context.Context, q db.Queryer, returnID uint, status ReturnStatus) error {
	_, err := q.ExecContext(ctx, `
		UPDATE return_requests SET status = $2, updated_at = NOW() WHERE id = $1
	`, returnID, status)
	return err
}

func (r *repository) MarkRejected(ctx context.Context, q db.Queryer, returnID uint, reason string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE return_requests
		SET status = $2, reject_reason = $3, updated_at = NOW()
		WHERE id = $1
	`, returnID, StatusRejected, reason)
	return err
}

func (r *repository) MarkCompleted(ctx context.Context, q db.Queryer, returnID uint) error {
	_, err := q.ExecContext(ctx, `
		UPDATE return_requests
		SET status = $2, refunded_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, returnID, StatusCompleted)
	return err
}
