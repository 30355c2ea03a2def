package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lokapasar-be/internal/db"
)

type Repository interface {
	SavePayment(ctx context.Context, q db.Queryer, p *Payment) error
	GetPaymentByOrder(ctx context.Context, orderID uint) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, q db.Queryer, externalID, status string, paidAt *time.Time) error

	// SaveRefund records a refund row. A second refund for the same
	// return request is rejected so a retried approval cannot pay out
	// twice.
	SaveRefund(ctx context.Context, q db.Queryer, r *Refund) error
	GetRefundsByOrder(ctx context.Context, orderID uint) ([]Refund, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) SavePayment(ctx context.Context, q db.Queryer, p *Payment) error {
	return q.QueryRowContext(ctx, `
		INSERT INTO payments (order_id, external_id, provider_payment_id, invoice_url,
			amount, status, payment_method, channel_code, payment_code, provider, currency, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		p.OrderID, p.ExternalID, p.ProviderPaymentID, p.InvoiceURL,
		p.Amount, p.Status, p.PaymentMethod, p.ChannelCode, p.PaymentCode,
		"XENDIT", "IDR", p.ExpiresAt,
	).Scan(&p.ID)
}

func (r *repository) GetPaymentByOrder(ctx context.Context, orderID uint) (*Payment, error) {
	var p Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, external_id, provider_payment_id, invoice_url,
			amount, status, payment_method, channel_code, payment_code, expires_at, created_at, updated_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID).Scan(
		&p.ID, &p.OrderID, &p.ExternalID, &p.ProviderPaymentID, &p.InvoiceURL,
		&p.Amount, &p.Status, &p.PaymentMethod, &p.ChannelCode, &p.PaymentCode,
		&p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, q db.Queryer, externalID, status string, paidAt *time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, paid_at = COALESCE($3, paid_at), updated_at = NOW()
		WHERE external_id = $1
	`, externalID, status, paidAt)
	return err
}

func (r *repository) SaveRefund(ctx context.Context, q db.Queryer, ref *Refund) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO refunds (payment_id, order_id, return_request_id, provider_refund_id, amount, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
		RETURNING id
	`,
		ref.PaymentID, ref.OrderID, ref.ReturnRequestID, ref.ProviderRefundID,
		ref.Amount, ref.Reason, ref.Status,
	).Scan(&ref.ID)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrDuplicateRefund
	}
	return err
}

func (r *repository) GetRefundsByOrder(ctx context.Context, orderID uint) ([]Refund, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, payment_id, order_id, return_request_id, provider_refund_id, amount, reason, status, created_at
		FROM refunds
		WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []Refund
	for rows.Next() {
		var ref Refund
		if err := rows.Scan(
			&ref.ID, &ref.PaymentID, &ref.OrderID, &ref.ReturnRequestID,
			&ref.ProviderRefundID, &ref.Amount, &ref.Reason, &ref.Status, &ref.CreatedAt,
		); err != nil {
			return nil, err
		}
		refunds = append(refunds, ref)
	}
	return refunds, rows.Err()
}
