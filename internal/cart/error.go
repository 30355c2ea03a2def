package cart

import "lokapasar-be/pkg/apperr"

var (
	ErrCartItemNotFound = apperr.New(apperr.CodeNotFound, "cart item not found")
	ErrInvalidQuantity  = apperr.New(apperr.CodeInvalidParams, "quantity must be greater than zero")
)
