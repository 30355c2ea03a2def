package returns

import "lokapasar-be/pkg/apperr"

var (
	ErrReturnNotFound      = apperr.New(apperr.CodeReturnNotFound, "return request not found")
	ErrReturnWindowExpired = apperr.New(apperr.CodeReturnWindowExpired, "return window has expired")
	ErrReturnAlreadyOpen   = apperr.New(apperr.CodeReturnAlreadyOpen, "a return request is already open for this order")
	ErrReturnQuantity      = apperr.New(apperr.CodeReturnQuantity, "return quantity exceeds ordered quantity")
	ErrInvalidReturnStatus = apperr.New(apperr.CodeInvalidStatus, "operation not allowed in current return status")
	ErrInvalidReason       = apperr.New(apperr.CodeInvalidParams, "unknown return reason category")
	ErrForbidden           = apperr.New(apperr.CodeForbidden, "cannot access another user's return request")
	ErrNoItems             = apperr.New(apperr.CodeInvalidParams, "return request has no items")
)
