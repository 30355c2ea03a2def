package rest

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"lokapasar-be/internal/settlement"
)

type SettlementHandler struct {
	svc settlement.Service
}

func NewSettlementHandler(svc settlement.Service) *SettlementHandler {
	return &SettlementHandler{svc: svc}
}

// Generate creates one settlement when sellerId is given, or one per
// active seller otherwise. Dates are YYYY-MM-DD; the end date covers
// the whole day.
func (h *SettlementHandler) Generate(c *gin.Context) {
	var req generateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondBindError(c, err)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		respondBindError(c, err)
		return
	}
	end = end.Add(24*time.Hour - time.Second)

	ctx := c.Request.Context()

	if req.SellerID != nil {
		stl, err := h.svc.CreateSettlement(ctx, *req.SellerID, start, end)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCreated(c, []settlementResponse{toSettlementResponse(stl)})
		return
	}

	created, err := h.svc.CreateForAllSellers(ctx, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]settlementResponse, len(created))
	for i, stl := range created {
		resp[i] = toSettlementResponse(stl)
	}
	respondCreated(c, resp)
}

func (h *SettlementHandler) Get(c *gin.Context) {
	settlementID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	stl, err := h.svc.GetSettlement(c.Request.Context(), settlementID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toSettlementResponse(stl))
}

func (h *SettlementHandler) Approve(c *gin.Context) {
	h.transition(c, h.svc.Approve)
}

func (h *SettlementHandler) MarkPaid(c *gin.Context) {
	h.transition(c, h.svc.MarkPaid)
}

func (h *SettlementHandler) Cancel(c *gin.Context) {
	h.transition(c, h.svc.Cancel)
}

func (h *SettlementHandler) Delete(c *gin.Context) {
	settlementID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), settlementID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": settlementID})
}

func (h *SettlementHandler) transition(c *gin.Context, fn func(ctx context.Context, id uint) (*settlement.Settlement, error)) {
	settlementID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	stl, err := fn(c.Request.Context(), settlementID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toSettlementResponse(stl))
}
