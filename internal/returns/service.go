package returns

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"lokapasar-be/internal/db"
	"lokapasar-be/internal/inventory"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/notification"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"

	"go.uber.org/zap"
)

type Service interface {
	CreateReturnRequest(ctx context.Context, userID uint, input CreateReturnInput) (*ReturnRequest, error)

	// Admin transitions. Any transition attempted from the wrong source
	// state fails with a business error.
	Approve(ctx context.Context, returnID uint) (*ReturnRequest, error)
	Reject(ctx context.Context, returnID uint, reason string) (*ReturnRequest, error)

	// Complete restores stock, issues the refund exactly once and
	// classifies the order as fully or partially returned.
	Complete(ctx context.Context, returnID uint) (*ReturnRequest, error)

	GetReturnRequest(ctx context.Context, returnID, userID uint, isAdmin bool) (*ReturnRequest, error)
}

type CreateReturnInput struct {
	OrderID        uint
	ReasonCategory ReasonCategory
	DetailedReason string
	Items          []ReturnItemInput
}

type ReturnItemInput struct {
	OrderItemID uint
	Quantity    int
}

type service struct {
	repo        Repository
	orderRepo   order.Repository
	paymentRepo payment.Repository
	paymentGate payment.Gateway
	guard       inventory.Guard
	notifier    notification.Notifier
	txm         db.TxRunner
}

func NewService(
	repo Repository,
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	paymentGate payment.Gateway,
	guard inventory.Guard,
	notifier notification.Notifier,
	txm db.TxRunner,
) Service {
	return &service{
		repo:        repo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		paymentGate: paymentGate,
		guard:       guard,
		notifier:    notifier,
		txm:         txm,
	}
}

func (s *service) CreateReturnRequest(ctx context.Context, userID uint, input CreateReturnInput) (*ReturnRequest, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "CreateReturnRequest"),
		zap.Uint("order_id", input.OrderID),
		zap.Uint("user_id", userID),
	)

	if !input.ReasonCategory.Valid() {
		return nil, ErrInvalidReason
	}
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}

	rr := &ReturnRequest{
		OrderID:        input.OrderID,
		UserID:         userID,
		Status:         StatusRequested,
		ReasonCategory: input.ReasonCategory,
		DetailedReason: input.DetailedReason,
	}

	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		o, err := s.orderRepo.GetOrderForUpdate(ctx, q, input.OrderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrForbidden
		}
		if o.Status != order.StatusDelivered || o.DeliveredAt == nil {
			return order.ErrInvalidStatus
		}
		if time.Now().After(o.DeliveredAt.Add(ReturnWindow)) {
			return ErrReturnWindowExpired
		}

		open, err := s.repo.HasOpenReturn(ctx, q, o.ID)
		if err != nil {
			return err
		}
		if open {
			return ErrReturnAlreadyOpen
		}

		orderItems := make(map[uint]order.OrderItem, len(o.Items))
		for _, item := range o.Items {
			orderItems[item.ID] = item
		}

		for _, in := range input.Items {
			oi, ok := orderItems[in.OrderItemID]
			if !ok {
				return ErrReturnQuantity
			}
			if in.Quantity <= 0 || in.Quantity > oi.Quantity {
				return ErrReturnQuantity
			}

			refund := oi.Price * int64(in.Quantity)
			rr.ItemRefundAmount += refund
			rr.Items = append(rr.Items, ReturnItem{
				OrderItemID:  oi.ID,
				ProductID:    oi.ProductID,
				OptionID:     oi.OptionID,
				Quantity:     in.Quantity,
				RefundAmount: refund,
			})
		}

		// Shipping comes back only when the seller is at fault, never
		// for a change of mind.
		if input.ReasonCategory.SellerFault() {
			rr.ShippingRefundAmount = o.ShippingFee
		}
		rr.TotalRefundAmount = rr.ItemRefundAmount + rr.ShippingRefundAmount

		if err := s.repo.CreateReturnRequest(ctx, q, rr); err != nil {
			return err
		}
		return s.orderRepo.UpdateStatus(ctx, q, o.ID, order.StatusReturnRequested)
	})
	if err != nil {
		log.Warn("return request rejected", zap.Error(err))
		return nil, err
	}

	log.Info("return request created",
		zap.Uint("return_id", rr.ID),
		zap.Int64("total_refund", rr.TotalRefundAmount),
	)
	s.notifier.NotifyAdmin(ctx, "RETURN_REQUESTED",
		fmt.Sprintf("return request %d opened for order %d", rr.ID, rr.OrderID))

	return rr, nil
}

func (s *service) Approve(ctx context.Context, returnID uint) (*ReturnRequest, error) {
	var result *ReturnRequest
	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		rr, err := s.repo.GetReturnForUpdate(ctx, q, returnID)
		if err != nil {
			return err
		}
		if rr.Status != StatusRequested {
			return ErrInvalidReturnStatus
		}

		if err := s.repo.UpdateStatus(ctx, q, rr.ID, StatusApproved); err != nil {
			return err
		}
		if err := s.orderRepo.UpdateStatus(ctx, q, rr.OrderID, order.StatusReturnApproved); err != nil {
			return err
		}

		rr.Status = StatusApproved
		result = rr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, result.UserID, "RETURN_APPROVED",
		fmt.Sprintf("return request for order %d approved", result.OrderID))
	return result, nil
}

func (s *service) Reject(ctx context.Context, returnID uint, reason string) (*ReturnRequest, error) {
	var result *ReturnRequest
	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		rr, err := s.repo.GetReturnForUpdate(ctx, q, returnID)
		if err != nil {
			return err
		}
		if rr.Status != StatusRequested {
			return ErrInvalidReturnStatus
		}

		if err := s.repo.MarkRejected(ctx, q, rr.ID, reason); err != nil {
			return err
		}
		// The order goes back to plain DELIVERED.
		if err := s.orderRepo.UpdateStatus(ctx, q, rr.OrderID, order.StatusDelivered); err != nil {
			return err
		}

		rr.Status = StatusRejected
		rr.RejectReason = &reason
		result = rr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, result.UserID, "RETURN_REJECTED",
		fmt.Sprintf("return request for order %d rejected: %s", result.OrderID, reason))
	return result, nil
}

func (s *service) Complete(ctx context.Context, returnID uint) (*ReturnRequest, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "Complete"),
		zap.Uint("return_id", returnID),
	)

	var result *ReturnRequest
	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		rr, err := s.repo.GetReturnForUpdate(ctx, q, returnID)
		if err != nil {
			return err
		}
		if rr.Status != StatusApproved {
			return ErrInvalidReturnStatus
		}

		o, err := s.orderRepo.GetOrderForUpdate(ctx, q, rr.OrderID)
		if err != nil {
			return err
		}

		// Stock rows are locked in product order, matching the checkout
		// paths, so a restore never deadlocks a concurrent order.
		for _, item := range lockOrdered(rr.Items) {
			if err := s.guard.Restore(ctx, q, item.ProductID, item.OptionID, item.Quantity); err != nil {
				return err
			}
		}

		// Refund exactly once. A gateway failure aborts the whole
		// transaction so stock is not restored without a payout.
		if err := s.refundReturn(ctx, q, rr); err != nil {
			return err
		}

		finalStatus := order.StatusPartiallyReturned
		if coversEntireOrder(o.Items, rr.Items) {
			finalStatus = order.StatusReturnCompleted
		}

		if err := s.repo.MarkCompleted(ctx, q, rr.ID); err != nil {
			return err
		}
		if err := s.orderRepo.UpdateStatus(ctx, q, o.ID, finalStatus); err != nil {
			return err
		}

		now := time.Now()
		rr.Status = StatusCompleted
		rr.RefundedAt = &now
		result = rr
		return nil
	})
	if err != nil {
		log.Error("return completion failed", zap.Error(err))
		return nil, err
	}

	log.Info("return completed", zap.Int64("refunded", result.TotalRefundAmount))
	s.notifier.NotifyUser(ctx, result.UserID, "RETURN_COMPLETED",
		fmt.Sprintf("refund of %d for order %d issued", result.TotalRefundAmount, result.OrderID))
	return result, nil
}

func (s *service) refundReturn(ctx context.Context, q db.Queryer, rr *ReturnRequest) error {
	p, err := s.paymentRepo.GetPaymentByOrder(ctx, rr.OrderID)
	if err != nil {
		return err
	}

	gwRefund, err := s.paymentGate.CreateRefund(ctx, p.ProviderPaymentID, rr.TotalRefundAmount, string(rr.ReasonCategory))
	if err != nil {
		return fmt.Errorf("refund failed, aborting return completion: %w", err)
	}

	err = s.paymentRepo.SaveRefund(ctx, q, &payment.Refund{
		PaymentID:        p.ID,
		OrderID:          rr.OrderID,
		ReturnRequestID:  &rr.ID,
		ProviderRefundID: gwRefund.ProviderRefundID,
		Amount:           rr.TotalRefundAmount,
		Reason:           string(rr.ReasonCategory),
		Status:           gwRefund.Status,
	})
	if errors.Is(err, payment.ErrDuplicateRefund) {
		return nil
	}
	return err
}

// lockOrdered returns a copy sorted by product then option id, the
// order in which stock row locks must be taken.
func lockOrdered(items []ReturnItem) []ReturnItem {
	out := append([]ReturnItem(nil), items...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return optionKey(out[i].OptionID) < optionKey(out[j].OptionID)
	})
	return out
}

func optionKey(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

// coversEntireOrder reports whether the return items cover every order
// item at its full ordered quantity.
func coversEntireOrder(orderItems []order.OrderItem, returnItems []ReturnItem) bool {
	returned := make(map[uint]int, len(returnItems))
	for _, item := range returnItems {
		returned[item.OrderItemID] += item.Quantity
	}
	for _, oi := range orderItems {
		if returned[oi.ID] < oi.Quantity {
			return false
		}
	}
	return true
}

func (s *service) GetReturnRequest(ctx context.Context, returnID, userID uint, isAdmin bool) (*ReturnRequest, error) {
	rr, err := s.repo.GetReturnDetail(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && rr.UserID != userID {
		return nil, ErrForbidden
	}
	return rr, nil
}
