package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lokapasar-be/internal/inventory"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID uint, input order.CreateOrderInput) (*order.Order, *payment.ChargeResponse, error) {
	args := m.Called(ctx, userID, input)
	var o *order.Order
	var ch *payment.ChargeResponse
	if v, ok := args.Get(0).(*order.Order); ok {
		o = v
	}
	if v, ok := args.Get(1).(*payment.ChargeResponse); ok {
		ch = v
	}
	return o, ch, args.Error(2)
}

func (m *MockOrderService) CompletePayment(ctx context.Context, orderID uint) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOrderService) FailPayment(ctx context.Context, orderID uint) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderID, requesterID uint, isAdmin bool, reason string) (*order.Order, error) {
	args := m.Called(ctx, orderID, requesterID, isAdmin, reason)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) ConfirmOrder(ctx context.Context, orderID, userID uint) (*order.Order, error) {
	args := m.Called(ctx, orderID, userID)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, orderID uint, status order.OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *MockOrderService) UpdateTrackingNumber(ctx context.Context, orderID uint, trackingNumber string) error {
	return m.Called(ctx, orderID, trackingNumber).Error(0)
}

func (m *MockOrderService) GetOrderDetail(ctx context.Context, orderID, userID uint, isAdmin bool) (*order.Order, error) {
	args := m.Called(ctx, orderID, userID, isAdmin)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) GetOrders(ctx context.Context, userID uint, status *order.OrderStatus, limit, page int) ([]*order.Order, error) {
	args := m.Called(ctx, userID, status, limit, page)
	if o, ok := args.Get(0).([]*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) ResolveOrderID(ctx context.Context, orderNumber string) (uint, error) {
	args := m.Called(ctx, orderNumber)
	return args.Get(0).(uint), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCharge(ctx context.Context, externalID string, buyer payment.BuyerInfo, amount int64, items []payment.ChargeItem, channel payment.ChannelCode) (*payment.ChargeResponse, error) {
	return nil, nil
}

func (m *MockGateway) CreateRefund(ctx context.Context, providerPaymentID string, amount int64, reason string) (*payment.RefundResponse, error) {
	return nil, nil
}

func (m *MockGateway) GetPaymentStatus(ctx context.Context, externalID string) (*payment.PaymentStatus, error) {
	return nil, nil
}

func (m *MockGateway) ExpireCharge(ctx context.Context, externalID string) error { return nil }

func (m *MockGateway) VerifySignature(r *http.Request) error {
	return m.Called(r).Error(0)
}

func webhookRequest(t *testing.T, payload interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	body, err := json.Marshal(payload)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/webhooks/payment", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

func TestHandlePaymentCallback(t *testing.T) {
	t.Run("Success_Paid", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		gateway := new(MockGateway)
		h := NewWebhookHandler(orderSvc, gateway)

		w, c := webhookRequest(t, map[string]interface{}{
			"id":          "pay-1",
			"external_id": "ORD-20250101-1",
			"status":      "PAID",
			"amount":      33000,
		})

		gateway.On("VerifySignature", mock.Anything).Return(nil)
		orderSvc.On("ResolveOrderID", mock.Anything, "ORD-20250101-1").Return(uint(100), nil)
		orderSvc.On("CompletePayment", mock.Anything, uint(100)).Return(nil)

		h.HandlePaymentCallback(c)

		assert.Equal(t, http.StatusOK, w.Code)
		orderSvc.AssertExpectations(t)
	})

	t.Run("Success_Expired", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		gateway := new(MockGateway)
		h := NewWebhookHandler(orderSvc, gateway)

		w, c := webhookRequest(t, map[string]interface{}{
			"id":          "pay-1",
			"external_id": "ORD-20250101-1",
			"status":      "EXPIRED",
		})

		gateway.On("VerifySignature", mock.Anything).Return(nil)
		orderSvc.On("ResolveOrderID", mock.Anything, "ORD-20250101-1").Return(uint(100), nil)
		orderSvc.On("FailPayment", mock.Anything, uint(100)).Return(nil)

		h.HandlePaymentCallback(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Ignored_Status", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		gateway := new(MockGateway)
		h := NewWebhookHandler(orderSvc, gateway)

		w, c := webhookRequest(t, map[string]interface{}{
			"external_id": "ORD-20250101-1",
			"status":      "PENDING",
		})

		gateway.On("VerifySignature", mock.Anything).Return(nil)
		orderSvc.On("ResolveOrderID", mock.Anything, "ORD-20250101-1").Return(uint(100), nil)

		h.HandlePaymentCallback(c)

		assert.Equal(t, http.StatusOK, w.Code)
		orderSvc.AssertNotCalled(t, "CompletePayment", mock.Anything, mock.Anything)
		orderSvc.AssertNotCalled(t, "FailPayment", mock.Anything, mock.Anything)
	})

	t.Run("Unauthorized_Signature", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		gateway := new(MockGateway)
		h := NewWebhookHandler(orderSvc, gateway)

		w, c := webhookRequest(t, map[string]interface{}{
			"external_id": "ORD-20250101-1",
			"status":      "PAID",
		})

		gateway.On("VerifySignature", mock.Anything).Return(errors.New("invalid token"))

		h.HandlePaymentCallback(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		orderSvc.AssertNotCalled(t, "ResolveOrderID", mock.Anything, mock.Anything)
	})

	t.Run("Unknown_Order", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		gateway := new(MockGateway)
		h := NewWebhookHandler(orderSvc, gateway)

		w, c := webhookRequest(t, map[string]interface{}{
			"external_id": "ORD-unknown",
			"status":      "PAID",
		})

		gateway.On("VerifySignature", mock.Anything).Return(nil)
		orderSvc.On("ResolveOrderID", mock.Anything, "ORD-unknown").Return(uint(0), order.ErrOrderNotFound)

		h.HandlePaymentCallback(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Processing_Error", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		gateway := new(MockGateway)
		h := NewWebhookHandler(orderSvc, gateway)

		w, c := webhookRequest(t, map[string]interface{}{
			"external_id": "ORD-20250101-1",
			"status":      "PAID",
		})

		gateway.On("VerifySignature", mock.Anything).Return(nil)
		orderSvc.On("ResolveOrderID", mock.Anything, "ORD-20250101-1").Return(uint(100), nil)
		orderSvc.On("CompletePayment", mock.Anything, uint(100)).Return(errors.New("db error"))

		h.HandlePaymentCallback(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Paid_But_Stock_Gone", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		gateway := new(MockGateway)
		h := NewWebhookHandler(orderSvc, gateway)

		w, c := webhookRequest(t, map[string]interface{}{
			"external_id": "ORD-20250101-1",
			"status":      "PAID",
		})

		gateway.On("VerifySignature", mock.Anything).Return(nil)
		orderSvc.On("ResolveOrderID", mock.Anything, "ORD-20250101-1").Return(uint(100), nil)
		orderSvc.On("CompletePayment", mock.Anything, uint(100)).Return(inventory.ErrInsufficientStock)
		orderSvc.On("FailPayment", mock.Anything, uint(100)).Return(nil)

		h.HandlePaymentCallback(c)

		// The provider will never send a FAILED callback for captured
		// money, so the handler itself must fail the order.
		assert.Equal(t, http.StatusBadRequest, w.Code)
		orderSvc.AssertCalled(t, "FailPayment", mock.Anything, uint(100))
	})

	t.Run("Invalid_JSON", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		gateway := new(MockGateway)
		h := NewWebhookHandler(orderSvc, gateway)

		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/webhooks/payment", bytes.NewBufferString("{invalid-json"))

		gateway.On("VerifySignature", mock.Anything).Return(nil)

		h.HandlePaymentCallback(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
