package returns

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"lokapasar-be/internal/db"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type stubTxRunner struct{}

func (stubTxRunner) Transaction(ctx context.Context, fn func(q db.Queryer) error) error {
	return fn(nil)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateReturnRequest(ctx context.Context, q db.Queryer, rr *ReturnRequest) error {
	args := m.Called(ctx, q, rr)
	if args.Error(0) == nil {
		rr.ID = 50
	}
	return args.Error(0)
}

func (m *MockRepository) GetReturnForUpdate(ctx context.Context, q db.Queryer, returnID uint) (*ReturnRequest, error) {
	args := m.Called(ctx, q, returnID)
	if rr, ok := args.Get(0).(*ReturnRequest); ok {
		return rr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetReturnDetail(ctx context.Context, returnID uint) (*ReturnRequest, error) {
	args := m.Called(ctx, returnID)
	if rr, ok := args.Get(0).(*ReturnRequest); ok {
		return rr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) HasOpenReturn(ctx context.Context, q db.Queryer, orderID uint) (bool, error) {
	args := m.Called(ctx, q, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, q db.Queryer, returnID uint, status ReturnStatus) error {
	return m.Called(ctx, q, returnID, status).Error(0)
}

func (m *MockRepository) MarkRejected(ctx context.Context, q db.Queryer, returnID uint, reason string) error {
	return m.Called(ctx, q, returnID, reason).Error(0)
}

func (m *MockRepository) MarkCompleted(ctx context.Context, q db.Queryer, returnID uint) error {
	return m.Called(ctx, q, returnID).Error(0)
}

type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) CreateOrder(ctx context.Context, q db.Queryer, o *order.Order) error {
	return m.Called(ctx, q, o).Error(0)
}

func (m *MockOrderRepo) GetOrderForUpdate(ctx context.Context, q db.Queryer, orderID uint) (*order.Order, error) {
	args := m.Called(ctx, q, orderID)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepo) GetOrderDetail(ctx context.Context, orderID uint) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepo) GetIDByOrderNumber(ctx context.Context, orderNumber string) (uint, error) {
	args := m.Called(ctx, orderNumber)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockOrderRepo) GetOrders(ctx context.Context, userID uint, status *order.OrderStatus, limit, offset int) ([]*order.Order, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if o, ok := args.Get(0).([]*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, q db.Queryer, orderID uint, status order.OrderStatus) error {
	return m.Called(ctx, q, orderID, status).Error(0)
}

func (m *MockOrderRepo) MarkPaid(ctx context.Context, q db.Queryer, orderID uint, paidAt time.Time) error {
	return m.Called(ctx, q, orderID, paidAt).Error(0)
}

func (m *MockOrderRepo) MarkCancelled(ctx context.Context, q db.Queryer, orderID uint, reason string) error {
	return m.Called(ctx, q, orderID, reason).Error(0)
}

func (m *MockOrderRepo) SetTrackingNumber(ctx context.Context, q db.Queryer, orderID uint, trackingNumber string) error {
	return m.Called(ctx, q, orderID, trackingNumber).Error(0)
}

func (m *MockOrderRepo) SetDelivered(ctx context.Context, q db.Queryer, orderID uint) error {
	return m.Called(ctx, q, orderID).Error(0)
}

func (m *MockOrderRepo) SetConfirmed(ctx context.Context, q db.Queryer, orderID uint) error {
	return m.Called(ctx, q, orderID).Error(0)
}

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) SavePayment(ctx context.Context, q db.Queryer, p *payment.Payment) error {
	return m.Called(ctx, q, p).Error(0)
}

func (m *MockPaymentRepo) GetPaymentByOrder(ctx context.Context, orderID uint) (*payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if p, ok := args.Get(0).(*payment.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentRepo) UpdatePaymentStatus(ctx context.Context, q db.Queryer, externalID, status string, paidAt *time.Time) error {
	return m.Called(ctx, q, externalID, status, paidAt).Error(0)
}

func (m *MockPaymentRepo) SaveRefund(ctx context.Context, q db.Queryer, r *payment.Refund) error {
	return m.Called(ctx, q, r).Error(0)
}

func (m *MockPaymentRepo) GetRefundsByOrder(ctx context.Context, orderID uint) ([]payment.Refund, error) {
	args := m.Called(ctx, orderID)
	if refs, ok := args.Get(0).([]payment.Refund); ok {
		return refs, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCharge(ctx context.Context, externalID string, buyer payment.BuyerInfo, amount int64, items []payment.ChargeItem, channel payment.ChannelCode) (*payment.ChargeResponse, error) {
	args := m.Called(ctx, externalID, buyer, amount, items, channel)
	if resp, ok := args.Get(0).(*payment.ChargeResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) CreateRefund(ctx context.Context, providerPaymentID string, amount int64, reason string) (*payment.RefundResponse, error) {
	args := m.Called(ctx, providerPaymentID, amount, reason)
	if resp, ok := args.Get(0).(*payment.RefundResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) GetPaymentStatus(ctx context.Context, externalID string) (*payment.PaymentStatus, error) {
	args := m.Called(ctx, externalID)
	if st, ok := args.Get(0).(*payment.PaymentStatus); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) ExpireCharge(ctx context.Context, externalID string) error {
	return m.Called(ctx, externalID).Error(0)
}

func (m *MockGateway) VerifySignature(r *http.Request) error { return nil }

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) WithLockedStock(ctx context.Context, q db.Queryer, productID uint, optionID *uint, fn func(stock int) (int, error)) error {
	return m.Called(ctx, q, productID, optionID).Error(0)
}

func (m *MockGuard) Check(ctx context.Context, q db.Queryer, productID uint, optionID *uint, qty int) error {
	return m.Called(ctx, q, productID, optionID, qty).Error(0)
}

func (m *MockGuard) Decrement(ctx context.Context, q db.Queryer, productID uint, optionID *uint, qty int) error {
	return m.Called(ctx, q, productID, optionID, qty).Error(0)
}

func (m *MockGuard) Restore(ctx context.Context, q db.Queryer, productID uint, optionID *uint, qty int) error {
	return m.Called(ctx, q, productID, optionID, qty).Error(0)
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) NotifyUser(ctx context.Context, userID uint, event, message string) {
	n.events = append(n.events, event)
}

func (n *recordingNotifier) NotifyAdmin(ctx context.Context, event, message string) {
	n.events = append(n.events, event)
}

type deps struct {
	repo        *MockRepository
	orderRepo   *MockOrderRepo
	paymentRepo *MockPaymentRepo
	gateway     *MockGateway
	guard       *MockGuard
	notifier    *recordingNotifier
}

func newService(t *testing.T) (Service, *deps) {
	t.Helper()
	d := &deps{
		repo:        new(MockRepository),
		orderRepo:   new(MockOrderRepo),
		paymentRepo: new(MockPaymentRepo),
		gateway:     new(MockGateway),
		guard:       new(MockGuard),
		notifier:    &recordingNotifier{},
	}
	svc := NewService(d.repo, d.orderRepo, d.paymentRepo, d.gateway, d.guard, d.notifier, stubTxRunner{})
	return svc, d
}

func deliveredOrder(deliveredAgo time.Duration) *order.Order {
	delivered := time.Now().Add(-deliveredAgo)
	return &order.Order{
		ID:          100,
		OrderNumber: "ORD-1",
		UserID:      1,
		Status:      order.StatusDelivered,
		ShippingFee: 3000,
		DeliveredAt: &delivered,
		Items: []order.OrderItem{
			{ID: 10, ProductID: 1, Price: 10000, Quantity: 2},
			{ID: 11, ProductID: 2, Price: 5000, Quantity: 1},
		},
	}
}

func TestCreateReturnRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - seller fault refunds shipping", func(t *testing.T) {
		svc, d := newService(t)

		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(deliveredOrder(24*time.Hour), nil)
		d.repo.On("HasOpenReturn", ctx, nil, uint(100)).Return(false, nil)
		d.repo.On("CreateReturnRequest", ctx, nil, mock.AnythingOfType("*returns.ReturnRequest")).Return(nil)
		d.orderRepo.On("UpdateStatus", ctx, nil, uint(100), order.StatusReturnRequested).Return(nil)

		rr, err := svc.CreateReturnRequest(ctx, 1, CreateReturnInput{
			OrderID:        100,
			ReasonCategory: ReasonDefectiveProduct,
			DetailedReason: "arrived broken",
			Items:          []ReturnItemInput{{OrderItemID: 10, Quantity: 2}},
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(20000), rr.ItemRefundAmount)
		assert.Equal(t, int64(3000), rr.ShippingRefundAmount)
		assert.Equal(t, int64(23000), rr.TotalRefundAmount)
		assert.Contains(t, d.notifier.events, "RETURN_REQUESTED")
	})

	t.Run("Success - change of mind excludes shipping", func(t *testing.T) {
		svc, d := newService(t)

		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(deliveredOrder(24*time.Hour), nil)
		d.repo.On("HasOpenReturn", ctx, nil, uint(100)).Return(false, nil)
		d.repo.On("CreateReturnRequest", ctx, nil, mock.Anything).Return(nil)
		d.orderRepo.On("UpdateStatus", ctx, nil, uint(100), order.StatusReturnRequested).Return(nil)

		rr, err := svc.CreateReturnRequest(ctx, 1, CreateReturnInput{
			OrderID:        100,
			ReasonCategory: ReasonChangeOfMind,
			Items:          []ReturnItemInput{{OrderItemID: 10, Quantity: 2}},
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(0), rr.ShippingRefundAmount)
		assert.Equal(t, int64(20000), rr.TotalRefundAmount)
	})

	t.Run("Error - window expired", func(t *testing.T) {
		svc, d := newService(t)

		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(deliveredOrder(8*24*time.Hour), nil)

		_, err := svc.CreateReturnRequest(ctx, 1, CreateReturnInput{
			OrderID:        100,
			ReasonCategory: ReasonDefectiveProduct,
			Items:          []ReturnItemInput{{OrderItemID: 10, Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrReturnWindowExpired)
	})

	t.Run("Error - return already open", func(t *testing.T) {
		svc, d := newService(t)

		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(deliveredOrder(24*time.Hour), nil)
		d.repo.On("HasOpenReturn", ctx, nil, uint(100)).Return(true, nil)

		_, err := svc.CreateReturnRequest(ctx, 1, CreateReturnInput{
			OrderID:        100,
			ReasonCategory: ReasonDefectiveProduct,
			Items:          []ReturnItemInput{{OrderItemID: 10, Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrReturnAlreadyOpen)
	})

	t.Run("Error - quantity exceeds ordered", func(t *testing.T) {
		svc, d := newService(t)

		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(deliveredOrder(24*time.Hour), nil)
		d.repo.On("HasOpenReturn", ctx, nil, uint(100)).Return(false, nil)

		_, err := svc.CreateReturnRequest(ctx, 1, CreateReturnInput{
			OrderID:        100,
			ReasonCategory: ReasonDefectiveProduct,
			Items:          []ReturnItemInput{{OrderItemID: 10, Quantity: 5}},
		})

		assert.ErrorIs(t, err, ErrReturnQuantity)
		d.repo.AssertNotCalled(t, "CreateReturnRequest", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - not delivered", func(t *testing.T) {
		svc, d := newService(t)

		o := deliveredOrder(24 * time.Hour)
		o.Status = order.StatusShipped
		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(o, nil)

		_, err := svc.CreateReturnRequest(ctx, 1, CreateReturnInput{
			OrderID:        100,
			ReasonCategory: ReasonDefectiveProduct,
			Items:          []ReturnItemInput{{OrderItemID: 10, Quantity: 1}},
		})

		assert.ErrorIs(t, err, order.ErrInvalidStatus)
	})

	t.Run("Error - unknown reason", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.CreateReturnRequest(ctx, 1, CreateReturnInput{
			OrderID:        100,
			ReasonCategory: "I_JUST_FELT_LIKE_IT",
			Items:          []ReturnItemInput{{OrderItemID: 10, Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrInvalidReason)
	})

	t.Run("Error - another user's order", func(t *testing.T) {
		svc, d := newService(t)

		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(deliveredOrder(24*time.Hour), nil)

		_, err := svc.CreateReturnRequest(ctx, 2, CreateReturnInput{
			OrderID:        100,
			ReasonCategory: ReasonDefectiveProduct,
			Items:          []ReturnItemInput{{OrderItemID: 10, Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestApproveReject(t *testing.T) {
	ctx := context.Background()

	t.Run("Approve success", func(t *testing.T) {
		svc, d := newService(t)

		rr := &ReturnRequest{ID: 50, OrderID: 100, UserID: 1, Status: StatusRequested}
		d.repo.On("GetReturnForUpdate", ctx, nil, uint(50)).Return(rr, nil)
		d.repo.On("UpdateStatus", ctx, nil, uint(50), StatusApproved).Return(nil)
		d.orderRepo.On("UpdateStatus", ctx, nil, uint(100), order.StatusReturnApproved).Return(nil)

		result, err := svc.Approve(ctx, 50)

		assert.NoError(t, err)
		assert.Equal(t, StatusApproved, result.Status)
		assert.Contains(t, d.notifier.events, "RETURN_APPROVED")
	})

	t.Run("Approve from wrong state", func(t *testing.T) {
		svc, d := newService(t)

		rr := &ReturnRequest{ID: 50, Status: StatusCompleted}
		d.repo.On("GetReturnForUpdate", ctx, nil, uint(50)).Return(rr, nil)

		_, err := svc.Approve(ctx, 50)
		assert.ErrorIs(t, err, ErrInvalidReturnStatus)
	})

	t.Run("Reject reverts order to delivered", func(t *testing.T) {
		svc, d := newService(t)

		rr := &ReturnRequest{ID: 50, OrderID: 100, UserID: 1, Status: StatusRequested}
		d.repo.On("GetReturnForUpdate", ctx, nil, uint(50)).Return(rr, nil)
		d.repo.On("MarkRejected", ctx, nil, uint(50), "item was used").Return(nil)
		d.orderRepo.On("UpdateStatus", ctx, nil, uint(100), order.StatusDelivered).Return(nil)

		result, err := svc.Reject(ctx, 50, "item was used")

		assert.NoError(t, err)
		assert.Equal(t, StatusRejected, result.Status)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	var noOption *uint

	approvedReturn := func(items []ReturnItem) *ReturnRequest {
		rr := &ReturnRequest{
			ID: 50, OrderID: 100, UserID: 1,
			Status:            StatusApproved,
			ReasonCategory:    ReasonDefectiveProduct,
			TotalRefundAmount: 23000,
			Items:             items,
		}
		return rr
	}

	fullReturnItems := []ReturnItem{
		{OrderItemID: 10, ProductID: 1, Quantity: 2, RefundAmount: 20000},
		{OrderItemID: 11, ProductID: 2, Quantity: 1, RefundAmount: 5000},
	}
	partialReturnItems := []ReturnItem{
		{OrderItemID: 10, ProductID: 1, Quantity: 1, RefundAmount: 10000},
	}

	t.Run("Success - full return completes order", func(t *testing.T) {
		svc, d := newService(t)

		d.repo.On("GetReturnForUpdate", ctx, nil, uint(50)).Return(approvedReturn(fullReturnItems), nil)
		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(deliveredOrder(24*time.Hour), nil)
		d.guard.On("Restore", ctx, nil, uint(1), noOption, 2).Return(nil)
		d.guard.On("Restore", ctx, nil, uint(2), noOption, 1).Return(nil)
		d.paymentRepo.On("GetPaymentByOrder", ctx, uint(100)).
			Return(&payment.Payment{ID: 1, OrderID: 100, ProviderPaymentID: "pr-1"}, nil)
		d.gateway.On("CreateRefund", ctx, "pr-1", int64(23000), "DEFECTIVE_PRODUCT").
			Return(&payment.RefundResponse{ProviderRefundID: "rfd-1", Status: "SUCCEEDED"}, nil)
		d.paymentRepo.On("SaveRefund", ctx, nil, mock.AnythingOfType("*payment.Refund")).Return(nil)
		d.repo.On("MarkCompleted", ctx, nil, uint(50)).Return(nil)
		d.orderRepo.On("UpdateStatus", ctx, nil, uint(100), order.StatusReturnCompleted).Return(nil)

		result, err := svc.Complete(ctx, 50)

		assert.NoError(t, err)
		assert.Equal(t, StatusCompleted, result.Status)
		assert.NotNil(t, result.RefundedAt)
		d.guard.AssertExpectations(t)
		d.gateway.AssertNumberOfCalls(t, "CreateRefund", 1)
	})

	t.Run("Success - partial return", func(t *testing.T) {
		svc, d := newService(t)

		d.repo.On("GetReturnForUpdate", ctx, nil, uint(50)).Return(approvedReturn(partialReturnItems), nil)
		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(deliveredOrder(24*time.Hour), nil)
		d.guard.On("Restore", ctx, nil, uint(1), noOption, 1).Return(nil)
		d.paymentRepo.On("GetPaymentByOrder", ctx, uint(100)).
			Return(&payment.Payment{ID: 1, OrderID: 100, ProviderPaymentID: "pr-1"}, nil)
		d.gateway.On("CreateRefund", ctx, "pr-1", int64(23000), "DEFECTIVE_PRODUCT").
			Return(&payment.RefundResponse{ProviderRefundID: "rfd-1", Status: "SUCCEEDED"}, nil)
		d.paymentRepo.On("SaveRefund", ctx, nil, mock.Anything).Return(nil)
		d.repo.On("MarkCompleted", ctx, nil, uint(50)).Return(nil)
		d.orderRepo.On("UpdateStatus", ctx, nil, uint(100), order.StatusPartiallyReturned).Return(nil)

		_, err := svc.Complete(ctx, 50)

		assert.NoError(t, err)
		d.orderRepo.AssertCalled(t, "UpdateStatus", ctx, nil, uint(100), order.StatusPartiallyReturned)
	})

	t.Run("Error - gateway failure aborts", func(t *testing.T) {
		svc, d := newService(t)

		d.repo.On("GetReturnForUpdate", ctx, nil, uint(50)).Return(approvedReturn(fullReturnItems), nil)
		d.orderRepo.On("GetOrderForUpdate", ctx, nil, uint(100)).Return(deliveredOrder(24*time.Hour), nil)
		d.guard.On("Restore", ctx, nil, mock.Anything, noOption, mock.Anything).Return(nil)
		d.paymentRepo.On("GetPaymentByOrder", ctx, uint(100)).
			Return(&payment.Payment{ID: 1, OrderID: 100, ProviderPaymentID: "pr-1"}, nil)
		d.gateway.On("CreateRefund", ctx, "pr-1", int64(23000), "DEFECTIVE_PRODUCT").
			Return(nil, errors.New("gateway timeout"))

		_, err := svc.Complete(ctx, 50)

		assert.Error(t, err)
		d.repo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - not approved", func(t *testing.T) {
		svc, d := newService(t)

		rr := approvedReturn(fullReturnItems)
		rr.Status = StatusRequested
		d.repo.On("GetReturnForUpdate", ctx, nil, uint(50)).Return(rr, nil)

		_, err := svc.Complete(ctx, 50)
		assert.ErrorIs(t, err, ErrInvalidReturnStatus)
	})
}

func TestSellerFault(t *testing.T) {
	assert.True(t, ReasonDefectiveProduct.SellerFault())
	assert.True(t, ReasonWrongItem.SellerFault())
	assert.True(t, ReasonDeliveryDelay.SellerFault())
	assert.False(t, ReasonChangeOfMind.SellerFault())
	assert.False(t, ReasonNoLongerNeeded.SellerFault())
}

func TestCoversEntireOrder(t *testing.T) {
	orderItems := []order.OrderItem{
		{ID: 10, Quantity: 2},
		{ID: 11, Quantity: 1},
	}

	t.Run("Full coverage", func(t *testing.T) {
		assert.True(t, coversEntireOrder(orderItems, []ReturnItem{
			{OrderItemID: 10, Quantity: 2},
			{OrderItemID: 11, Quantity: 1},
		}))
	})

	t.Run("Partial quantity", func(t *testing.T) {
		assert.False(t, coversEntireOrder(orderItems, []ReturnItem{
			{OrderItemID: 10, Quantity: 1},
			{OrderItemID: 11, Quantity: 1},
		}))
	})

	t.Run("Missing item", func(t *testing.T) {
		assert.False(t, coversEntireOrder(orderItems, []ReturnItem{
			{OrderItemID: 10, Quantity: 2},
		}))
	})
}
