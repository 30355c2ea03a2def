package settlement

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"lokapasar-be/internal/order"
)

type Repository interface {
	// AggregateSales sums price * quantity over the seller's order items
	// on paid orders created inside [start, end].
	AggregateSales(ctx context.Context, sellerID uint, start, end time.Time) (*SalesSummary, error)

	// CreateSettlement inserts the settlement. A second insert for the
	// same (seller, start, end) fails with ErrDuplicateSettlement via
	// the unique constraint.
	CreateSettlement(ctx context.Context, s *Settlement) error

	GetSettlement(ctx context.Context, settlementID uint) (*Settlement, error)
	GetSettlementsBySeller(ctx context.Context, sellerID uint, limit, offset int) ([]*Settlement, error)
	UpdateStatus(ctx context.Context, settlementID uint, status SettlementStatus) error
	Delete(ctx context.Context, settlementID uint) error

	GetSeller(ctx context.Context, sellerID uint) (*Seller, error)
	ListActiveSellers(ctx context.Context) ([]*Seller, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) AggregateSales(ctx context.Context, sellerID uint, start, end time.Time) (*SalesSummary, error) {
	var summary SalesSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(oi.price * oi.quantity), 0), COUNT(oi.id)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.seller_id = $1
		  AND o.paid_at IS NOT NULL
		  AND o.status NOT IN ($2, $3)
		  AND o.created_at >= $4
		  AND o.created_at <= $5
	`, sellerID, order.StatusCancelled, order.StatusPaymentFailed, start, end).
		Scan(&summary.TotalSales, &summary.ItemCount)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *repository) CreateSettlement(ctx context.Context, s *Settlement) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO settlements (seller_id, start_date, end_date, total_sales, order_count,
			commission_rate, commission_amount, net_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`,
		s.SellerID, s.StartDate, s.EndDate, s.TotalSales, s.OrderCount,
		s.CommissionRate, s.CommissionAmount, s.NetAmount, s.Status,
	).Scan(&s.ID, &s.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateSettlement
	}
	return err
}

const settlementColumns = `
	id, seller_id, start_date, end_date, total_sales, order_count,
	commission_rate, commission_amount, net_amount, status, created_at, updated_at`

func scanSettlement(row interface{ Scan(...any) error }) (*Settlement, error) {
	var s Settlement
	err := row.Scan(
		&s.ID, &s.SellerID, &s.StartDate, &s.EndDate, &s.TotalSales, &s.OrderCount,
		&s.CommissionRate, &s.CommissionAmount, &s.NetAmount, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) GetSettlement(ctx context.Context, settlementID uint) (*Settlement, error) {
	s, err := scanSettlement(r.db.QueryRowContext(ctx, `
		SELECT`+settlementColumns+`
		FROM settlements
		WHERE id = $1
	`, settlementID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	return s, err
}

func (r *repository) GetSettlementsBySeller(ctx context.Context, sellerID uint, limit, offset int) ([]*Settlement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+settlementColumns+`
		FROM settlements
		WHERE seller_id = $1
		ORDER BY start_date DESC
		LIMIT $2 OFFSET $3
	`, sellerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, settlementID uint, status SettlementStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE settlements SET status = $2, updated_at = NOW() WHERE id = $1
	`, settlementID, status)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSettlementNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, settlementID uint) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM settlements WHERE id = $1
	`, settlementID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSettlementNotFound
	}
	return nil
}

func (r *repository) GetSeller(ctx context.Context, sellerID uint) (*Seller, error) {
	var s Seller
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, commission_rate, active
		FROM sellers
		WHERE id = $1
	`, sellerID).Scan(&s.ID, &s.Name, &s.CommissionRate, &s.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSellerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListActiveSellers(ctx context.Context) ([]*Seller, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, commission_rate, active
		FROM sellers
		WHERE active
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sellers []*Seller
	for rows.Next() {
		var s Seller
		if err := rows.Scan(&s.ID, &s.Name, &s.CommissionRate, &s.Active); err != nil {
			return nil, err
		}
		sellers = append(sellers, &s)
	}
	return sellers, rows.Err()
}
