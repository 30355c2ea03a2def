package coupon

import "time"

// IsValid reports whether the coupon itself can still be redeemed:
// active, inside its [StartDate, EndDate) window, and not exhausted.
func IsValid(c *Coupon, now time.Time) bool {
	if c == nil || !c.Active {
		return false
	}
	if now.Before(c.StartDate) || !now.Before(c.EndDate) {
		return false
	}
	if c.TotalQuantity != nil && c.UsedQuantity >= *c.TotalQuantity {
		return false
	}
	return true
}

// IsAvailable reports whether this user's issued coupon can be
// consumed right now: unused, unexpired, and the underlying coupon
// still valid.
func IsAvailable(uc *UserCoupon, now time.Time) bool {
	if uc == nil || uc.UsedAt != nil {
		return false
	}
	if !now.Before(uc.ExpiresAt) {
		return false
	}
	return IsValid(uc.Coupon, now)
}

// CalculateDiscount computes the discount for an order amount.
// Fixed coupons give DiscountValue capped at the order amount.
// Percentage coupons give amount*value/100, capped at
// MaxDiscountAmount when set, then capped at the order amount.
func CalculateDiscount(c *Coupon, orderAmount int64) int64 {
	if c == nil || orderAmount <= 0 {
		return 0
	}

	var discount int64
	switch c.DiscountType {
	case DiscountFixed:
		discount = c.DiscountValue
	case DiscountPercentage:
		discount = orderAmount * c.DiscountValue / 100
		if c.MaxDiscountAmount != nil && discount > *c.MaxDiscountAmount {
			discount = *c.MaxDiscountAmount
		}
	default:
		return 0
	}

	if discount > orderAmount {
		discount = orderAmount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// AppliesTo checks the coupon's category/product restriction against
// the order's lines. A coupon with no restriction applies to
// everything; otherwise at least one line must be in the allow-list.
func AppliesTo(c *Coupon, productIDs, categoryIDs []uint) bool {
	if c == nil {
		return false
	}
	if len(c.ApplicableProductIDs) == 0 && len(c.ApplicableCategoryIDs) == 0 {
		return true
	}

	allowedProducts := make(map[uint]bool, len(c.ApplicableProductIDs))
	for _, id := range c.ApplicableProductIDs {
		allowedProducts[id] = true
	}
	for _, id := range productIDs {
		if allowedProducts[id] {
			return true
		}
	}

	allowedCategories := make(map[uint]bool, len(c.ApplicableCategoryIDs))
	for _, id := range c.ApplicableCategoryIDs {
		allowedCategories[id] = true
	}
	for _, id := range categoryIDs {
		if allowedCategories[id] {
			return true
		}
	}

	return false
}
