package product

import "lokapasar-be/pkg/apperr"

var (
	ErrProductNotFound = apperr.New(apperr.CodeProductNotFound, "product not found")
	ErrOptionNotFound  = apperr.New(apperr.CodeProductNotFound, "product option not found")
)
