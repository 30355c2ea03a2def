package order

import "lokapasar-be/pkg/apperr"

var (
	ErrOrderNotFound     = apperr.New(apperr.CodeOrderNotFound, "order not found")
	ErrEmptyOrder        = apperr.New(apperr.CodeEmptyOrder, "order has no items")
	ErrInvalidStatus     = apperr.New(apperr.CodeInvalidStatus, "operation not allowed in current order status")
	ErrInvalidTransition = apperr.New(apperr.CodeInvalidStatus, "invalid order status transition")
	ErrForbidden         = apperr.New(apperr.CodeForbidden, "cannot access another user's order")
	ErrInvalidQuantity   = apperr.New(apperr.CodeInvalidParams, "quantity must be greater than zero")
)
