package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
	"lokapasar-be/pkg/apperr"
)

// webhookPayload is the JSON the payment provider sends. ExternalID is
// our order number.
type webhookPayload struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	PaidAt     string `json:"paid_at,omitempty"`
}

type WebhookHandler struct {
	orderSvc order.Service
	gateway  payment.Gateway
}

func NewWebhookHandler(orderSvc order.Service, gateway payment.Gateway) *WebhookHandler {
	return &WebhookHandler{orderSvc: orderSvc, gateway: gateway}
}

func (h *WebhookHandler) HandlePaymentCallback(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "payment_webhook"))

	if err := h.gateway.VerifySignature(c.Request); err != nil {
		log.Warn("webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	log.Info("webhook received",
		zap.String("external_id", payload.ExternalID),
		zap.String("status", payload.Status),
	)

	orderID, err := h.orderSvc.ResolveOrderID(ctx, payload.ExternalID)
	if err != nil {
		respondError(c, err)
		return
	}

	switch payload.Status {
	case "PAID", "SUCCEEDED":
		err = completePaidOrder(ctx, h.orderSvc, orderID)
	case "EXPIRED", "FAILED":
		err = h.orderSvc.FailPayment(ctx, orderID)
	default:
		// Intermediate provider statuses are acknowledged and ignored.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if err != nil {
		log.Error("webhook processing failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// completePaidOrder drives the stock gate for a captured charge. When
// stock disappeared between creation and capture, the order is failed
// right away: the provider never sends a FAILED callback for money it
// already took, so without this write the order would sit in
// PENDING_PAYMENT forever with the coupon still consumed.
func completePaidOrder(ctx context.Context, svc order.Service, orderID uint) error {
	err := svc.CompletePayment(ctx, orderID)
	if apperr.Is(err, apperr.CodeInsufficientStock) {
		if failErr := svc.FailPayment(ctx, orderID); failErr != nil {
			logger.FromCtx(ctx).Error("could not fail order after stock gate",
				zap.Uint("order_id", orderID),
				zap.Error(failErr),
			)
		}
	}
	return err
}
