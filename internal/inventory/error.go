package inventory

import "lokapasar-be/pkg/apperr"

var (
	ErrInsufficientStock = apperr.New(apperr.CodeInsufficientStock, "insufficient stock")
	ErrStockRowNotFound  = apperr.New(apperr.CodeProductNotFound, "product not found")
)
