package rest

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"lokapasar-be/internal/order"
	"lokapasar-be/internal/utils"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := utils.GetUserIDFromContext(c.Request.Context())

	items := make([]order.OrderItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.OrderItemInput{
			ProductID: it.ProductID,
			OptionID:  it.OptionID,
			Quantity:  it.Quantity,
		}
	}

	o, charge, err := h.svc.CreateOrder(c.Request.Context(), userID, order.CreateOrderInput{
		Items:           items,
		UserCouponID:    req.UserCouponID,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		BuyerName:       req.BuyerName,
		BuyerEmail:      req.BuyerEmail,
		BuyerPhone:      utils.NormalizePhoneID(req.BuyerPhone),
	})
	if err != nil {
		// Charge failure after the order persisted: the client gets the
		// order back and can retry payment.
		if o != nil {
			respondCreated(c, createOrderResponse{Order: toOrderResponse(o)})
			return
		}
		respondError(c, err)
		return
	}

	respondCreated(c, createOrderResponse{
		Order:   toOrderResponse(o),
		Payment: toPaymentInstruction(charge),
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	o, err := h.svc.GetOrderDetail(ctx, orderID, userID, utils.IsAdmin(ctx))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderResponse(o))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	var status *order.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := order.OrderStatus(raw)
		status = &s
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	orders, err := h.svc.GetOrders(ctx, userID, status, limit, page)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	respondOK(c, resp)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	o, err := h.svc.CancelOrder(ctx, orderID, userID, utils.IsAdmin(ctx), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderResponse(o))
}

func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	o, err := h.svc.ConfirmOrder(ctx, orderID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderResponse(o))
}

// CompletePayment is the manual fallback for confirming a payment when
// the provider callback was missed.
func (h *OrderHandler) CompletePayment(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := completePaidOrder(c.Request.Context(), h.svc, orderID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"status": string(order.StatusPaid)})
}

// UpdateStatus is the admin transition endpoint for the fulfillment
// legs (PAID -> PREPARING -> SHIPPED -> DELIVERED).
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.svc.UpdateOrderStatus(c.Request.Context(), orderID, order.OrderStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"status": req.Status})
}

func (h *OrderHandler) UpdateTracking(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req trackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.svc.UpdateTrackingNumber(c.Request.Context(), orderID, req.TrackingNumber); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"trackingNumber": req.TrackingNumber})
}

func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id), err
}
