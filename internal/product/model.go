package product

import "time"

type ProductStatus string

const (
	StatusActive   ProductStatus = "ACTIVE"
	StatusInactive ProductStatus = "INACTIVE"
)

type Product struct {
	ID         uint
	SellerID   uint
	CategoryID uint
	Name       string
	Price      int64
	Stock      int
	Status     ProductStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Option is a purchasable variation of a product with its own price
// and stock counter.
type Option struct {
	ID        uint
	ProductID uint
	Name      string
	Price     int64
	Stock     int
}

// OrderLine is the read model order creation works from: the price and
// ownership snapshot of a product (or option) at lock time.
type OrderLine struct {
	ProductID  uint
	OptionID   *uint
	Name       string
	Price      int64
	SellerID   uint
	CategoryID uint
}
