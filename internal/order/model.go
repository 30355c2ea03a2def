package order

import "time"

type OrderStatus string

const (
	StatusPendingPayment    OrderStatus = "PENDING_PAYMENT"
	StatusPaymentFailed     OrderStatus = "PAYMENT_FAILED"
	StatusPaid              OrderStatus = "PAID"
	StatusPreparing         OrderStatus = "PREPARING"
	StatusShipped           OrderStatus = "SHIPPED"
	StatusDelivered         OrderStatus = "DELIVERED"
	StatusCancelled         OrderStatus = "CANCELLED"
	StatusReturnRequested   OrderStatus = "RETURN_REQUESTED"
	StatusReturnApproved    OrderStatus = "RETURN_APPROVED"
	StatusReturnCompleted   OrderStatus = "RETURN_COMPLETED"
	StatusPartiallyReturned OrderStatus = "PARTIALLY_RETURNED"
)

// validTransitions is the whole order state machine. Anything not
// listed here is rejected, so a status can never move backwards.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment:  {StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusPaid:            {StatusPreparing, StatusShipped, StatusCancelled},
	StatusPreparing:       {StatusShipped, StatusCancelled},
	StatusShipped:         {StatusDelivered},
	StatusDelivered:       {StatusReturnRequested},
	StatusReturnRequested: {StatusReturnApproved, StatusDelivered},
	StatusReturnApproved:  {StatusReturnCompleted, StatusPartiallyReturned},
}

func CanTransition(from, to OrderStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsCancellable reports whether an order may still be cancelled. Once
// the package is handed to a courier, the return workflow is the only
// way back.
func IsCancellable(status OrderStatus) bool {
	switch status {
	case StatusPendingPayment, StatusPaid, StatusPreparing:
		return true
	}
	return false
}

// StockDeducted reports whether the order has passed the payment gate,
// which is the point stock is actually decremented.
func StockDeducted(status OrderStatus) bool {
	switch status {
	case StatusPendingPayment, StatusPaymentFailed:
		return false
	}
	return true
}

type Order struct {
	ID                   uint
	OrderNumber          string
	UserID               uint
	Status               OrderStatus
	TotalAmount          int64
	CouponDiscountAmount int64
	ShippingFee          int64
	FinalAmount          int64
	UserCouponID         *uint
	PaymentMethod        string
	ShippingAddress      string
	TrackingNumber       *string
	CancelReason         *string
	PaidAt               *time.Time
	ShippedAt            *time.Time
	DeliveredAt          *time.Time
	ConfirmedAt          *time.Time
	CancelledAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Items                []OrderItem
}

type OrderItem struct {
	ID          uint
	OrderID     uint
	ProductID   uint
	OptionID    *uint
	SellerID    uint
	CategoryID  uint
	ProductName string
	Price       int64
	Quantity    int
	CreatedAt   time.Time
}

func (i OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}
