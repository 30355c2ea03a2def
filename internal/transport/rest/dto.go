package rest

import (
	"time"

	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
	"lokapasar-be/internal/returns"
	"lokapasar-be/internal/settlement"
)

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items" binding:"required,min=1,dive"`
	UserCouponID    *uint              `json:"userCouponId"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required"`
	ShippingAddress string             `json:"shippingAddress" binding:"required"`
	BuyerName       string             `json:"buyerName" binding:"required"`
	BuyerEmail      *string            `json:"buyerEmail"`
	BuyerPhone      string             `json:"buyerPhone" binding:"required"`
}

type orderItemRequest struct {
	ProductID uint  `json:"productId" binding:"required"`
	OptionID  *uint `json:"optionId"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type trackingRequest struct {
	TrackingNumber string `json:"trackingNumber" binding:"required"`
}

type orderItemResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"productId"`
	OptionID    *uint  `json:"optionId,omitempty"`
	ProductName string `json:"productName"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

type orderResponse struct {
	ID                   uint                `json:"id"`
	OrderNumber          string              `json:"orderNumber"`
	Status               string              `json:"status"`
	TotalAmount          int64               `json:"totalAmount"`
	CouponDiscountAmount int64               `json:"couponDiscountAmount"`
	ShippingFee          int64               `json:"shippingFee"`
	FinalAmount          int64               `json:"finalAmount"`
	PaymentMethod        string              `json:"paymentMethod"`
	ShippingAddress      string              `json:"shippingAddress"`
	TrackingNumber       *string             `json:"trackingNumber,omitempty"`
	CancelReason         *string             `json:"cancelReason,omitempty"`
	PaidAt               *time.Time          `json:"paidAt,omitempty"`
	DeliveredAt          *time.Time          `json:"deliveredAt,omitempty"`
	ConfirmedAt          *time.Time          `json:"confirmedAt,omitempty"`
	CreatedAt            time.Time           `json:"createdAt"`
	Items                []orderItemResponse `json:"items"`
}

type paymentInstructionResponse struct {
	ExternalID  string    `json:"externalId"`
	Amount      int64     `json:"amount"`
	ChannelCode string    `json:"channelCode"`
	PaymentCode string    `json:"paymentCode,omitempty"`
	InvoiceURL  string    `json:"invoiceUrl,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type createOrderResponse struct {
	Order   orderResponse               `json:"order"`
	Payment *paymentInstructionResponse `json:"payment,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			OptionID:    it.OptionID,
			ProductName: it.ProductName,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal(),
		}
	}
	return orderResponse{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		Status:               string(o.Status),
		TotalAmount:          o.TotalAmount,
		CouponDiscountAmount: o.CouponDiscountAmount,
		ShippingFee:          o.ShippingFee,
		FinalAmount:          o.FinalAmount,
		PaymentMethod:        o.PaymentMethod,
		ShippingAddress:      o.ShippingAddress,
		TrackingNumber:       o.TrackingNumber,
		CancelReason:         o.CancelReason,
		PaidAt:               o.PaidAt,
		DeliveredAt:          o.DeliveredAt,
		ConfirmedAt:          o.ConfirmedAt,
		CreatedAt:            o.CreatedAt,
		Items:                items,
	}
}

func toPaymentInstruction(ch *payment.ChargeResponse) *paymentInstructionResponse {
	if ch == nil {
		return nil
	}
	return &paymentInstructionResponse{
		ExternalID:  ch.ExternalID,
		Amount:      ch.Amount,
		ChannelCode: ch.ChannelCode,
		PaymentCode: ch.PaymentCode,
		InvoiceURL:  ch.InvoiceURL,
		ExpiresAt:   ch.ExpiresAt,
	}
}

type validateCouponRequest struct {
	Code        string `json:"code" binding:"required"`
	OrderAmount int64  `json:"orderAmount" binding:"required,min=1"`
	ProductIDs  []uint `json:"productIds"`
	CategoryIDs []uint `json:"categoryIds"`
}

type issueCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

type createReturnRequest struct {
	OrderID        uint                `json:"orderId" binding:"required"`
	ReasonCategory string              `json:"reasonCategory" binding:"required"`
	DetailedReason string              `json:"detailedReason"`
	Items          []returnItemRequest `json:"items" binding:"required,min=1,dive"`
}

type returnItemRequest struct {
	OrderItemID uint `json:"orderItemId" binding:"required"`
	Quantity    int  `json:"quantity" binding:"required,min=1"`
}

type rejectReturnRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type returnItemResponse struct {
	OrderItemID  uint  `json:"orderItemId"`
	ProductID    uint  `json:"productId"`
	Quantity     int   `json:"quantity"`
	RefundAmount int64 `json:"refundAmount"`
}

type returnResponse struct {
	ID                   uint                 `json:"id"`
	OrderID              uint                 `json:"orderId"`
	Status               string               `json:"status"`
	ReasonCategory       string               `json:"reasonCategory"`
	DetailedReason       string               `json:"detailedReason,omitempty"`
	ItemRefundAmount     int64                `json:"itemRefundAmount"`
	ShippingRefundAmount int64                `json:"shippingRefundAmount"`
	TotalRefundAmount    int64                `json:"totalRefundAmount"`
	RejectReason         *string              `json:"rejectReason,omitempty"`
	RefundedAt           *time.Time           `json:"refundedAt,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	Items                []returnItemResponse `json:"items"`
}

func toReturnResponse(rr *returns.ReturnRequest) returnResponse {
	items := make([]returnItemResponse, len(rr.Items))
	for i, it := range rr.Items {
		items[i] = returnItemResponse{
			OrderItemID:  it.OrderItemID,
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			RefundAmount: it.RefundAmount,
		}
	}
	return returnResponse{
		ID:                   rr.ID,
		OrderID:              rr.OrderID,
		Status:               string(rr.Status),
		ReasonCategory:       string(rr.ReasonCategory),
		DetailedReason:       rr.DetailedReason,
		ItemRefundAmount:     rr.ItemRefundAmount,
		ShippingRefundAmount: rr.ShippingRefundAmount,
		TotalRefundAmount:    rr.TotalRefundAmount,
		RejectReason:         rr.RejectReason,
		RefundedAt:           rr.RefundedAt,
		CreatedAt:            rr.CreatedAt,
		Items:                items,
	}
}

type generateSettlementRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	SellerID  *uint  `json:"sellerId"`
}

type settlementResponse struct {
	ID               uint      `json:"id"`
	SellerID         uint      `json:"sellerId"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	TotalSales       int64     `json:"totalSales"`
	OrderCount       int       `json:"orderCount"`
	CommissionRate   float64   `json:"commissionRate"`
	CommissionAmount int64     `json:"commissionAmount"`
	NetAmount        int64     `json:"netAmount"`
	Status           string    `json:"status"`
}

func toSettlementResponse(s *settlement.Settlement) settlementResponse {
	return settlementResponse{
		ID:               s.ID,
		SellerID:         s.SellerID,
		StartDate:        s.StartDate,
		EndDate:          s.EndDate,
		TotalSales:       s.TotalSales,
		OrderCount:       s.OrderCount,
		CommissionRate:   s.CommissionRate,
		CommissionAmount: s.CommissionAmount,
		NetAmount:        s.NetAmount,
		Status:           string(s.Status),
	}
}
