package rest

import (
	"github.com/gin-gonic/gin"

	"lokapasar-be/internal/coupon"
	"lokapasar-be/internal/utils"
)

type CouponHandler struct {
	svc coupon.Service
}

func NewCouponHandler(svc coupon.Service) *CouponHandler {
	return &CouponHandler{svc: svc}
}

// Validate answers the pre-checkout check. A business-invalid coupon is
// a 200 with valid=false, not an error.
func (h *CouponHandler) Validate(c *gin.Context) {
	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	result, err := h.svc.Validate(ctx, userID, req.Code, req.OrderAmount, req.ProductIDs, req.CategoryIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *CouponHandler) Claim(c *gin.Context) {
	var req issueCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	uc, err := h.svc.IssueToUser(ctx, req.Code, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, uc)
}
