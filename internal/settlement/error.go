package settlement

import "lokapasar-be/pkg/apperr"

var (
	ErrSettlementNotFound   = apperr.New(apperr.CodeSettlementNotFound, "settlement not found")
	ErrSellerNotFound       = apperr.New(apperr.CodeNotFound, "seller not found")
	ErrDuplicateSettlement  = apperr.New(apperr.CodeDuplicateSettlement, "settlement already exists for this seller and period")
	ErrSettlementImmutable  = apperr.New(apperr.CodeSettlementImmutable, "paid settlements cannot be modified")
	ErrInvalidSettlementSts = apperr.New(apperr.CodeInvalidStatus, "operation not allowed in current settlement status")
	ErrInvalidPeriod        = apperr.New(apperr.CodeInvalidParams, "settlement period start must not be after end")
)
