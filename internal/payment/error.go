package payment

import "lokapasar-be/pkg/apperr"

var (
	ErrPaymentNotFound = apperr.New(apperr.CodeNotFound, "payment not found")
	ErrDuplicateRefund = apperr.New(apperr.CodeBusiness, "refund already recorded for this request")
)
