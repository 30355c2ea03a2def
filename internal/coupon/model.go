package coupon

import "time"

type DiscountType string

const (
	DiscountFixed      DiscountType = "FIXED_AMOUNT"
	DiscountPercentage DiscountType = "PERCENTAGE"
)

type UsageType string

const (
	// SingleUse coupons may be issued and consumed at most once per user.
	SingleUse UsageType = "SINGLE_USE"
	MultiUse  UsageType = "MULTI_USE"
)

type Coupon struct {
	ID            uint
	Code          string
	Name          string
	DiscountType  DiscountType
	DiscountValue int64
	// MinOrderAmount is the smallest order total the coupon applies to.
	MinOrderAmount int64
	// MaxDiscountAmount caps percentage discounts; nil means uncapped.
	MaxDiscountAmount *int64
	StartDate         time.Time
	EndDate           time.Time
	// TotalQuantity bounds issuance; nil means unlimited.
	TotalQuantity *int
	UsedQuantity  int
	UsageType     UsageType
	Active        bool

	// Empty restriction lists mean the coupon applies to everything.
	ApplicableProductIDs  []uint
	ApplicableCategoryIDs []uint

	CreatedAt time.Time
}

type UserCoupon struct {
	ID       uint
	UserID   uint
	CouponID uint
	IssuedAt time.Time
	// UsedAt transitions nil -> non-nil exactly once.
	UsedAt    *time.Time
	ExpiresAt time.Time
	// OrderID links the coupon to the order that consumed it.
	OrderID *uint

	Coupon *Coupon
}

// ValidationResult is what the validate operation answers with.
type ValidationResult struct {
	Valid          bool   `json:"valid"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
	Message        string `json:"message,omitempty"`
}
