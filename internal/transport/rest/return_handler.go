package rest

import (
	"github.com/gin-gonic/gin"

	"lokapasar-be/internal/returns"
	"lokapasar-be/internal/utils"
)

type ReturnHandler struct {
	svc returns.Service
}

func NewReturnHandler(svc returns.Service) *ReturnHandler {
	return &ReturnHandler{svc: svc}
}

func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	var req createReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	items := make([]returns.ReturnItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = returns.ReturnItemInput{
			OrderItemID: it.OrderItemID,
			Quantity:    it.Quantity,
		}
	}

	rr, err := h.svc.CreateReturnRequest(ctx, userID, returns.CreateReturnInput{
		OrderID:        req.OrderID,
		ReasonCategory: returns.ReasonCategory(req.ReasonCategory),
		DetailedReason: req.DetailedReason,
		Items:          items,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toReturnResponse(rr))
}

func (h *ReturnHandler) GetReturn(c *gin.Context) {
	returnID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	rr, err := h.svc.GetReturnRequest(ctx, returnID, userID, utils.IsAdmin(ctx))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReturnResponse(rr))
}

func (h *ReturnHandler) Approve(c *gin.Context) {
	returnID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	rr, err := h.svc.Approve(c.Request.Context(), returnID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReturnResponse(rr))
}

func (h *ReturnHandler) Reject(c *gin.Context) {
	returnID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req rejectReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rr, err := h.svc.Reject(c.Request.Context(), returnID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReturnResponse(rr))
}

func (h *ReturnHandler) Complete(c *gin.Context) {
	returnID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	rr, err := h.svc.Complete(c.Request.Context(), returnID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReturnResponse(rr))
}
