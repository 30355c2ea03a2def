package returns

import "time"

type ReturnStatus string

const (
	StatusRequested ReturnStatus = "REQUESTED"
	StatusApproved  ReturnStatus = "APPROVED"
	StatusRejected  ReturnStatus = "REJECTED"
	StatusCompleted ReturnStatus = "COMPLETED"
)

type ReasonCategory string

const (
	ReasonDefectiveProduct  ReasonCategory = "DEFECTIVE_PRODUCT"
	ReasonWrongItem         ReasonCategory = "WRONG_ITEM"
	ReasonNotAsDescribed    ReasonCategory = "ITEM_NOT_AS_DESCRIBED"
	ReasonDeliveryDelay     ReasonCategory = "DELIVERY_DELAY"
	ReasonChangeOfMind      ReasonCategory = "CHANGE_OF_MIND"
	ReasonNoLongerNeeded    ReasonCategory = "NO_LONGER_NEEDED"
)

// SellerFault reports whether the reason entitles the customer to a
// shipping-fee refund on top of the item refunds.
func (r ReasonCategory) SellerFault() bool {
	switch r {
	case ReasonDefectiveProduct, ReasonWrongItem, ReasonNotAsDescribed, ReasonDeliveryDelay:
		return true
	}
	return false
}

func (r ReasonCategory) Valid() bool {
	switch r {
	case ReasonDefectiveProduct, ReasonWrongItem, ReasonNotAsDescribed,
		ReasonDeliveryDelay, ReasonChangeOfMind, ReasonNoLongerNeeded:
		return true
	}
	return false
}

// ReturnWindow is how long after delivery a return may be opened.
const ReturnWindow = 7 * 24 * time.Hour

type ReturnRequest struct {
	ID                   uint
	OrderID              uint
	UserID               uint
	Status               ReturnStatus
	ReasonCategory       ReasonCategory
	DetailedReason       string
	ItemRefundAmount     int64
	ShippingRefundAmount int64
	TotalRefundAmount    int64
	RejectReason         *string
	RefundedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Items                []ReturnItem
}

type ReturnItem struct {
	ID              uint
	ReturnRequestID uint
	OrderItemID     uint
	ProductID       uint
	OptionID        *uint
	Quantity        int
	RefundAmount    int64
}
