package coupon

import (
	"context"
	"errors"
	"time"

	"lokapasar-be/internal/logger"
	"lokapasar-be/pkg/apperr"

	"go.uber.org/zap"
)

type Service interface {
	// Validate answers the pre-checkout "would this coupon apply" check.
	// Business failures come back as an invalid result with a message,
	// not as an error.
	Validate(ctx context.Context, userID uint, code string, orderAmount int64, productIDs, categoryIDs []uint) (*ValidationResult, error)

	// IssueToUser hands a coupon to a user. Single-use coupons reject a
	// second issuance for the same user.
	IssueToUser(ctx context.Context, code string, userID uint) (*UserCoupon, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Validate(ctx context.Context, userID uint, code string, orderAmount int64, productIDs, categoryIDs []uint) (*ValidationResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "Validate"),
		zap.String("code", code),
		zap.Int64("order_amount", orderAmount),
	)

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return invalid("coupon not found"), nil
		}
		log.Error("failed to load coupon", zap.Error(err))
		return nil, apperr.Wrap(err, "failed to load coupon")
	}

	now := time.Now()
	if !IsValid(c, now) {
		return invalid("coupon is expired or no longer active"), nil
	}

	if c.UsageType == SingleUse {
		consumed, err := s.repo.UserHasConsumed(ctx, userID, c.ID)
		if err != nil {
			log.Error("failed to check coupon consumption", zap.Error(err))
			return nil, apperr.Wrap(err, "failed to check coupon consumption")
		}
		if consumed {
			return invalid("coupon already used"), nil
		}
	}

	if !AppliesTo(c, productIDs, categoryIDs) {
		return invalid("coupon does not apply to these products"), nil
	}

	if orderAmount < c.MinOrderAmount {
		return invalid("order amount below coupon minimum"), nil
	}

	discount := CalculateDiscount(c, orderAmount)

	log.Debug("coupon validated", zap.Int64("discount", discount))

	return &ValidationResult{
		Valid:          true,
		DiscountAmount: discount,
		FinalAmount:    orderAmount - discount,
	}, nil
}

func (s *service) IssueToUser(ctx context.Context, code string, userID uint) (*UserCoupon, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !IsValid(c, now) {
		return nil, ErrCouponUnavailable
	}

	// A user coupon never outlives the coupon's own window.
	uc, err := s.repo.IssueToUser(ctx, c, userID, c.EndDate)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("coupon issued",
		zap.String("code", code),
		zap.Uint("user_id", userID),
		zap.Uint("user_coupon_id", uc.ID),
	)

	return uc, nil
}

func invalid(message string) *ValidationResult {
	return &ValidationResult{Valid: false, Message: message}
}
