package settlement

import "time"

type SettlementStatus string

const (
	StatusPending   SettlementStatus = "PENDING"
	StatusApproved  SettlementStatus = "APPROVED"
	StatusPaid      SettlementStatus = "PAID"
	StatusCancelled SettlementStatus = "CANCELLED"
)

// Settlement is one seller's commission-adjusted statement for a period.
// All amounts are in minor currency units.
type Settlement struct {
	ID               uint
	SellerID         uint
	StartDate        time.Time
	EndDate          time.Time
	TotalSales       int64
	// OrderCount counts matching order items, not distinct orders.
	OrderCount       int
	CommissionRate   float64
	CommissionAmount int64
	NetAmount        int64
	Status           SettlementStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Seller struct {
	ID             uint
	Name           string
	CommissionRate float64
	Active         bool
}

// SalesSummary is the per-seller aggregate over paid orders in a period.
type SalesSummary struct {
	TotalSales int64
	ItemCount  int
}
