package coupon

import "lokapasar-be/pkg/apperr"

var (
	ErrCouponNotFound      = apperr.New(apperr.CodeCouponNotFound, "coupon not found")
	ErrCouponUnavailable   = apperr.New(apperr.CodeCouponUnavailable, "coupon is not available")
	ErrCouponMinimumNotMet = apperr.New(apperr.CodeCouponMinimumNotMet, "order amount below coupon minimum")
	ErrCouponExhausted     = apperr.New(apperr.CodeCouponExhausted, "coupon quantity exhausted")
	ErrCouponNotApplicable = apperr.New(apperr.CodeCouponNotApplicable, "coupon does not apply to these products")
	ErrCouponAlreadyIssued = apperr.New(apperr.CodeCouponAlreadyIssued, "coupon already issued to this user")
)
