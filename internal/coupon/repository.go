package coupon

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lokapasar-be/internal/db"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)

	// GetUserCouponForUpdate loads a user coupon joined with its coupon,
	// locking the user_coupons row for the duration of the transaction.
	GetUserCouponForUpdate(ctx context.Context, q db.Queryer, userCouponID uint) (*UserCoupon, error)

	// ConsumeUsage increments used_quantity, guarded so the counter can
	// never pass total_quantity even under concurrent consumption.
	ConsumeUsage(ctx context.Context, q db.Queryer, couponID uint) error

	// MarkUsed stamps used_at and the order link; guarded on
	// used_at IS NULL so a coupon is consumed exactly once.
	MarkUsed(ctx context.Context, q db.Queryer, userCouponID, orderID uint) error

	// ReverseUsage undoes a consumption for the given order. Returns
	// false when there was nothing to reverse, which makes a second
	// cancellation a no-op instead of a double reversal.
	ReverseUsage(ctx context.Context, q db.Queryer, userCouponID, orderID uint) (bool, error)

	IssueToUser(ctx context.Context, c *Coupon, userID uint, expiresAt time.Time) (*UserCoupon, error)
	UserHasConsumed(ctx context.Context, userID, couponID uint) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, name, discount_type, discount_value, min_order_amount,
			max_discount_amount, start_date, end_date, total_quantity, used_quantity,
			usage_type, active, created_at
		FROM coupons
		WHERE code = $1
	`, code).Scan(
		&c.ID, &c.Code, &c.Name, &c.DiscountType, &c.DiscountValue, &c.MinOrderAmount,
		&c.MaxDiscountAmount, &c.StartDate, &c.EndDate, &c.TotalQuantity, &c.UsedQuantity,
		&c.UsageType, &c.Active, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadRestrictions(ctx, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) loadRestrictions(ctx context.Context, c *Coupon) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id FROM coupon_products WHERE coupon_id = $1
	`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return err
		}
		c.ApplicableProductIDs = append(c.ApplicableProductIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	catRows, err := r.db.QueryContext(ctx, `
		SELECT category_id FROM coupon_categories WHERE coupon_id = $1
	`, c.ID)
	if err != nil {
		return err
	}
	defer catRows.Close()

	for catRows.Next() {
		var id uint
		if err := catRows.Scan(&id); err != nil {
			return err
		}
		c.ApplicableCategoryIDs = append(c.ApplicableCategoryIDs, id)
	}
	return catRows.Err()
}

func (r *repository) GetUserCouponForUpdate(ctx context.Context, q db.Queryer, userCouponID uint) (*UserCoupon, error) {
	var uc UserCoupon
	var c Coupon

	err := q.QueryRowContext(ctx, `
		SELECT uc.id, uc.user_id, uc.coupon_id, uc.issued_at, uc.used_at, uc.expires_at, uc.order_id,
			c.id, c.code, c.name, c.discount_type, c.discount_value, c.min_order_amount,
			c.max_discount_amount, c.start_date, c.end_date, c.total_quantity, c.used_quantity,
			c.usage_type, c.active, c.created_at
		FROM user_coupons uc
		JOIN coupons c ON c.id = uc.coupon_id
		WHERE uc.id = $1
		FOR UPDATE OF uc
	`, userCouponID).Scan(
		&uc.ID, &uc.UserID, &uc.CouponID, &uc.IssuedAt, &uc.UsedAt, &uc.ExpiresAt, &uc.OrderID,
		&c.ID, &c.Code, &c.Name, &c.DiscountType, &c.DiscountValue, &c.MinOrderAmount,
		&c.MaxDiscountAmount, &c.StartDate, &c.EndDate, &c.TotalQuantity, &c.UsedQuantity,
		&c.UsageType, &c.Active, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}

	uc.Coupon = &c
	return &uc, nil
}

func (r *repository) ConsumeUsage(ctx context.Context, q db.Queryer, couponID uint) error {
	res, err := q.ExecContext(ctx, `
		UPDATE coupons
		SET used_quantity = used_quantity + 1
		WHERE id = $1
		  AND (total_quantity IS NULL OR used_quantity < total_quantity)
	`, couponID)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCouponExhausted
	}
	return nil
}

func (r *repository) MarkUsed(ctx context.Context, q db.Queryer, userCouponID, orderID uint) error {
	res, err := q.ExecContext(ctx, `
		UPDATE user_coupons
		SET used_at = NOW(), order_id = $2
		WHERE id = $1
		  AND used_at IS NULL
	`, userCouponID, orderID)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCouponUnavailable
	}
	return nil
}

func (r *repository) ReverseUsage(ctx context.Context, q db.Queryer, userCouponID, orderID uint) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE user_coupons
		SET used_at = NULL, order_id = NULL
		WHERE id = $1
		  AND order_id = $2
		  AND used_at IS NOT NULL
	`, userCouponID, orderID)
	if err != nil {
		return false, err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return false, nil
	}

	_, err = q.ExecContext(ctx, `
		UPDATE coupons
		SET used_quantity = used_quantity - 1
		WHERE id = (SELECT coupon_id FROM user_coupons WHERE id = $1)
		  AND used_quantity > 0
	`, userCouponID)
	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *repository) IssueToUser(ctx context.Context, c *Coupon, userID uint, expiresAt time.Time) (*UserCoupon, error) {
	singleUse := c.UsageType == SingleUse

	// The partial unique index on (user_id, coupon_id) WHERE single_use
	// makes double issuance of a single-use coupon impossible even when
	// two requests race.
	var id uint
	var issuedAt time.Time
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_coupons (user_id, coupon_id, expires_at, single_use)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, coupon_id) WHERE single_use DO NOTHING
		RETURNING id, issued_at
	`, userID, c.ID, expiresAt, singleUse).Scan(&id, &issuedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponAlreadyIssued
	}
	if err != nil {
		return nil, err
	}

	return &UserCoupon{
		ID:        id,
		UserID:    userID,
		CouponID:  c.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Coupon:    c,
	}, nil
}

func (r *repository) UserHasConsumed(ctx context.Context, userID, couponID uint) (bool, error) {
	var consumed bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM user_coupons
			WHERE user_id = $1 AND coupon_id = $2 AND used_at IS NOT NULL
		)
	`, userID, couponID).Scan(&consumed)
	return consumed, err
}
