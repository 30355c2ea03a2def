package payment

import "time"

type Payment struct {
	ID                uint
	OrderID           uint
	ExternalID        string
	ProviderPaymentID string
	InvoiceURL        string
	Amount            int64
	Status            string
	PaymentMethod     string
	ChannelCode       string
	PaymentCode       string
	ExpiresAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Refund struct {
	ID               uint
	PaymentID        uint
	OrderID          uint
	ReturnRequestID  *uint
	ProviderRefundID string
	Amount           int64
	Reason           string
	Status           string
	CreatedAt        time.Time
}

type BuyerInfo struct {
	Name  string
	Email *string
	Phone string
}

type ChargeItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type ChargeResponse struct {
	ProviderPaymentID string
	ExternalID        string
	Amount            int64
	Status            string
	PaymentCode       string
	InvoiceURL        string
	ChannelCode       string
	ExpiresAt         time.Time
}

type RefundResponse struct {
	ProviderRefundID string
	Amount           int64
	Status           string
}

type PaymentStatus struct {
	Status string
	PaidAt *time.Time
}

type ChannelCode string

const (
	MethodBCAVA     = "BCA_VIRTUAL_ACCOUNT"
	MethodBNIVA     = "BNI_VIRTUAL_ACCOUNT"
	MethodMandiriVA = "MANDIRI_VIRTUAL_ACCOUNT"
	MethodQRIS      = "QRIS"
	MethodOVO       = "OVO"
	MethodDANA      = "DANA"
	MethodSHOPEE    = "SHOPEEPAY"
	MethodAlfamart  = "ALFAMART"
	MethodIndomaret = "INDOMARET"
)

const (
	StatusPending   = "PENDING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusExpired   = "EXPIRED"
	StatusRefunded  = "REFUNDED"
)
