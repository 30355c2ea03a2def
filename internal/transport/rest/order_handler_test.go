package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
	"lokapasar-be/internal/utils"
)

func authedContext(t *testing.T, method, path string, body interface{}, userID uint, role string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, &buf)
	c.Request.Header.Set("Content-Type", "application/json")

	ctx := utils.SetUserContext(c.Request.Context(), userID, "buyer@example.com", role)
	c.Request = c.Request.WithContext(ctx)
	return w, c
}

func TestCreateOrderHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewOrderHandler(svc)

		w, c := authedContext(t, "POST", "/api/v1/orders", map[string]interface{}{
			"items":           []map[string]interface{}{{"productId": 1, "quantity": 2}},
			"paymentMethod":   "BCA_VIRTUAL_ACCOUNT",
			"shippingAddress": "Jl. Sudirman No. 1, Jakarta",
			"buyerName":       "Budi",
			"buyerPhone":      "081234567890",
		}, 1, utils.RoleUser)

		o := &order.Order{ID: 100, OrderNumber: "ORD-1", Status: order.StatusPendingPayment, FinalAmount: 33000}
		charge := &payment.ChargeResponse{ExternalID: "ORD-1", Amount: 33000, PaymentCode: "8808123"}
		svc.On("CreateOrder", mock.Anything, uint(1), mock.MatchedBy(func(in order.CreateOrderInput) bool {
			// Phone must be normalized before the service sees it.
			return in.BuyerPhone == "+6281234567890" && len(in.Items) == 1
		})).Return(o, charge, nil)

		h.CreateOrder(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Success bool                `json:"success"`
			Data    createOrderResponse `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "ORD-1", resp.Data.Order.OrderNumber)
		assert.NotNil(t, resp.Data.Payment)
		assert.Equal(t, "8808123", resp.Data.Payment.PaymentCode)
	})

	t.Run("Error - missing items", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewOrderHandler(svc)

		w, c := authedContext(t, "POST", "/api/v1/orders", map[string]interface{}{
			"paymentMethod":   "QRIS",
			"shippingAddress": "Jl. Sudirman No. 1",
			"buyerName":       "Budi",
			"buyerPhone":      "081234567890",
		}, 1, utils.RoleUser)

		h.CreateOrder(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Charge failed - order still returned", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewOrderHandler(svc)

		w, c := authedContext(t, "POST", "/api/v1/orders", map[string]interface{}{
			"items":           []map[string]interface{}{{"productId": 1, "quantity": 1}},
			"paymentMethod":   "QRIS",
			"shippingAddress": "Jl. Sudirman No. 1",
			"buyerName":       "Budi",
			"buyerPhone":      "081234567890",
		}, 1, utils.RoleUser)

		o := &order.Order{ID: 100, OrderNumber: "ORD-1", Status: order.StatusPendingPayment}
		svc.On("CreateOrder", mock.Anything, uint(1), mock.Anything).
			Return(o, nil, assert.AnError)

		h.CreateOrder(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data createOrderResponse `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Nil(t, resp.Data.Payment)
	})

	t.Run("Error - insufficient stock maps to 400", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewOrderHandler(svc)

		w, c := authedContext(t, "POST", "/api/v1/orders", map[string]interface{}{
			"items":           []map[string]interface{}{{"productId": 1, "quantity": 99}},
			"paymentMethod":   "QRIS",
			"shippingAddress": "Jl. Sudirman No. 1",
			"buyerName":       "Budi",
			"buyerPhone":      "081234567890",
		}, 1, utils.RoleUser)

		svc.On("CreateOrder", mock.Anything, uint(1), mock.Anything).
			Return(nil, nil, order.ErrEmptyOrder)

		h.CreateOrder(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp struct {
			Success bool      `json:"success"`
			Error   errorBody `json:"error"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotZero(t, resp.Error.Code)
	})
}

func TestCancelOrderHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewOrderHandler(svc)

		w, c := authedContext(t, "POST", "/api/v1/orders/100/cancel", map[string]interface{}{
			"reason": "changed my mind",
		}, 1, utils.RoleUser)
		c.Params = gin.Params{{Key: "id", Value: "100"}}

		o := &order.Order{ID: 100, Status: order.StatusCancelled}
		svc.On("CancelOrder", mock.Anything, uint(100), uint(1), false, "changed my mind").Return(o, nil)

		h.CancelOrder(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Admin flag passes through", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewOrderHandler(svc)

		w, c := authedContext(t, "POST", "/api/v1/admin/orders/100/cancel", map[string]interface{}{
			"reason": "fraud",
		}, 7, utils.RoleAdmin)
		c.Params = gin.Params{{Key: "id", Value: "100"}}

		o := &order.Order{ID: 100, Status: order.StatusCancelled}
		svc.On("CancelOrder", mock.Anything, uint(100), uint(7), true, "fraud").Return(o, nil)

		h.CancelOrder(c)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Error - forbidden maps to 403", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewOrderHandler(svc)

		w, c := authedContext(t, "POST", "/api/v1/orders/100/cancel", map[string]interface{}{
			"reason": "nope",
		}, 2, utils.RoleUser)
		c.Params = gin.Params{{Key: "id", Value: "100"}}

		svc.On("CancelOrder", mock.Anything, uint(100), uint(2), false, "nope").
			Return(nil, order.ErrForbidden)

		h.CancelOrder(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestListOrdersHandler(t *testing.T) {
	svc := new(MockOrderService)
	h := NewOrderHandler(svc)

	w, c := authedContext(t, "GET", "/api/v1/orders?status=PAID&limit=10&page=2", nil, 1, utils.RoleUser)

	paid := order.StatusPaid
	svc.On("GetOrders", mock.Anything, uint(1), &paid, 10, 2).
		Return([]*order.Order{{ID: 1, Status: order.StatusPaid}}, nil)

	h.ListOrders(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
