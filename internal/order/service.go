package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/coupon"
	"lokapasar-be/internal/db"
	"lokapasar-be/internal/inventory"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/notification"
	"lokapasar-be/internal/payment"
	"lokapasar-be/internal/product"
	"lokapasar-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (*Order, *payment.ChargeResponse, error)

	// CompletePayment is the true stock gate: it decrements inventory
	// for every item and advances the order to PAID, failing the whole
	// payment when stock disappeared since order creation.
	CompletePayment(ctx context.Context, orderID uint) error
	FailPayment(ctx context.Context, orderID uint) error

	CancelOrder(ctx context.Context, orderID, requesterID uint, isAdmin bool, reason string) (*Order, error)
	ConfirmOrder(ctx context.Context, orderID, userID uint) (*Order, error)

	UpdateOrderStatus(ctx context.Context, orderID uint, status OrderStatus) error
	UpdateTrackingNumber(ctx context.Context, orderID uint, trackingNumber string) error

	GetOrderDetail(ctx context.Context, orderID, userID uint, isAdmin bool) (*Order, error)
	GetOrders(ctx context.Context, userID uint, status *OrderStatus, limit, page int) ([]*Order, error)
	ResolveOrderID(ctx context.Context, orderNumber string) (uint, error)
}

type CreateOrderInput struct {
	Items           []OrderItemInput
	UserCouponID    *uint
	PaymentMethod   string
	ShippingAddress string
	BuyerName       string
	BuyerEmail      *string
	BuyerPhone      string
}

type OrderItemInput struct {
	ProductID uint
	OptionID  *uint
	Quantity  int
}

type service struct {
	repo        Repository
	productRepo product.Repository
	cartRepo    cart.Repository
	couponRepo  coupon.Repository
	paymentRepo payment.Repository
	paymentGate payment.Gateway
	guard       inventory.Guard
	notifier    notification.Notifier
	txm         db.TxRunner
	shippingFee int64
}

func NewService(
	repo Repository,
	productRepo product.Repository,
	cartRepo cart.Repository,
	couponRepo coupon.Repository,
	paymentRepo payment.Repository,
	paymentGate payment.Gateway,
	guard inventory.Guard,
	notifier notification.Notifier,
	txm db.TxRunner,
	shippingFee int64,
) Service {
	return &service{
		repo:        repo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		couponRepo:  couponRepo,
		paymentRepo: paymentRepo,
		paymentGate: paymentGate,
		guard:       guard,
		notifier:    notifier,
		txm:         txm,
		shippingFee: shippingFee,
	}
}

func (s *service) CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (*Order, *payment.ChargeResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "CreateOrder"),
		zap.Uint("user_id", userID),
		zap.Int("item_count", len(input.Items)),
	)

	if len(input.Items) == 0 {
		return nil, nil, ErrEmptyOrder
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, nil, ErrInvalidQuantity
		}
	}

	o := &Order{
		OrderNumber:     utils.GenerateOrderNumber(),
		UserID:          userID,
		Status:          StatusPendingPayment,
		ShippingFee:     s.shippingFee,
		UserCouponID:    input.UserCouponID,
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
	}

	// Stock rows are locked in product order so two checkouts sharing
	// products never take the same locks in opposite order.
	items := append([]OrderItemInput(nil), input.Items...)
	sort.Slice(items, func(i, j int) bool {
		if items[i].ProductID != items[j].ProductID {
			return items[i].ProductID < items[j].ProductID
		}
		return optionKey(items[i].OptionID) < optionKey(items[j].OptionID)
	})

	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		// 1. Resolve prices and check stock. Stock is only checked
		// here; the decrement happens at payment completion.
		var totalAmount int64
		for _, item := range items {
			line, err := s.productRepo.GetOrderLine(ctx, q, item.ProductID, item.OptionID)
			if err != nil {
				return err
			}
			if err := s.guard.Check(ctx, q, item.ProductID, item.OptionID, item.Quantity); err != nil {
				return err
			}

			o.Items = append(o.Items, OrderItem{
				ProductID:   line.ProductID,
				OptionID:    line.OptionID,
				SellerID:    line.SellerID,
				CategoryID:  line.CategoryID,
				ProductName: line.Name,
				Price:       line.Price,
				Quantity:    item.Quantity,
			})
			totalAmount += line.Price * int64(item.Quantity)
		}
		o.TotalAmount = totalAmount

		// 2. Apply coupon.
		var uc *coupon.UserCoupon
		if input.UserCouponID != nil {
			var err error
			uc, err = s.resolveCoupon(ctx, q, userID, *input.UserCouponID, o)
			if err != nil {
				return err
			}
		}

		o.FinalAmount = o.TotalAmount - o.CouponDiscountAmount + o.ShippingFee

		// 3. Persist order + items, then consume the coupon against the
		// new order id.
		if err := s.repo.CreateOrder(ctx, q, o); err != nil {
			return err
		}

		if uc != nil {
			if err := s.couponRepo.ConsumeUsage(ctx, q, uc.CouponID); err != nil {
				return err
			}
			if err := s.couponRepo.MarkUsed(ctx, q, uc.ID, o.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		log.Warn("order creation rejected", zap.Error(err))
		return nil, nil, err
	}

	log = log.With(zap.String("order_number", o.OrderNumber), zap.Uint("order_id", o.ID))
	log.Info("order created", zap.Int64("final_amount", o.FinalAmount))

	// 4. Create the charge. The order survives a gateway failure so the
	// user can retry payment.
	charge, err := s.paymentGate.CreateCharge(ctx, o.OrderNumber, payment.BuyerInfo{
		Name:  input.BuyerName,
		Email: input.BuyerEmail,
		Phone: input.BuyerPhone,
	}, o.FinalAmount, chargeItems(o.Items), payment.ChannelCode(input.PaymentMethod))
	if err != nil {
		log.Error("failed to create charge", zap.Error(err))
		return o, nil, fmt.Errorf("failed to create payment charge: %w", err)
	}

	err = s.txm.Transaction(ctx, func(q db.Queryer) error {
		return s.paymentRepo.SavePayment(ctx, q, &payment.Payment{
			OrderID:           o.ID,
			ExternalID:        o.OrderNumber,
			ProviderPaymentID: charge.ProviderPaymentID,
			InvoiceURL:        charge.InvoiceURL,
			Amount:            charge.Amount,
			Status:            charge.Status,
			PaymentMethod:     input.PaymentMethod,
			ChannelCode:       charge.ChannelCode,
			PaymentCode:       charge.PaymentCode,
			ExpiresAt:         &charge.ExpiresAt,
		})
	})
	if err != nil {
		log.Error("failed to save payment", zap.Error(err))
		return o, nil, fmt.Errorf("failed to save payment: %w", err)
	}

	s.notifier.NotifyUser(ctx, userID, "ORDER_CREATED",
		fmt.Sprintf("order %s created, awaiting payment", o.OrderNumber))

	return o, charge, nil
}

// resolveCoupon validates the user coupon under lock and fills in the
// order's discount. The caller consumes the coupon after the order row
// exists.
func (s *service) resolveCoupon(ctx context.Context, q db.Queryer, userID, userCouponID uint, o *Order) (*coupon.UserCoupon, error) {
	uc, err := s.couponRepo.GetUserCouponForUpdate(ctx, q, userCouponID)
	if err != nil {
		return nil, err
	}
	if uc.UserID != userID {
		return nil, coupon.ErrCouponUnavailable
	}

	now := time.Now()
	if !coupon.IsAvailable(uc, now) {
		return nil, coupon.ErrCouponUnavailable
	}

	var productIDs, categoryIDs []uint
	for _, item := range o.Items {
		productIDs = append(productIDs, item.ProductID)
		categoryIDs = append(categoryIDs, item.CategoryID)
	}
	if !coupon.AppliesTo(uc.Coupon, productIDs, categoryIDs) {
		return nil, coupon.ErrCouponNotApplicable
	}

	if o.TotalAmount < uc.Coupon.MinOrderAmount {
		return nil, coupon.ErrCouponMinimumNotMet
	}

	o.CouponDiscountAmount = coupon.CalculateDiscount(uc.Coupon, o.TotalAmount)
	return uc, nil
}

func (s *service) CompletePayment(ctx context.Context, orderID uint) error {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "CompletePayment"),
		zap.Uint("order_id", orderID),
	)

	var userID uint
	var orderNumber string
	var alreadyPaid bool

	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		o, err := s.repo.GetOrderForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		userID, orderNumber = o.UserID, o.OrderNumber

		if o.Status == StatusPaid {
			// Retried webhook delivery.
			alreadyPaid = true
			return nil
		}
		if o.Status != StatusPendingPayment {
			return ErrInvalidStatus
		}

		for _, item := range lockOrdered(o.Items) {
			if err := s.guard.Decrement(ctx, q, item.ProductID, item.OptionID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.cartRepo.ClearCart(ctx, q, o.UserID); err != nil {
			return err
		}

		now := time.Now()
		if err := s.repo.MarkPaid(ctx, q, o.ID, now); err != nil {
			return err
		}
		return s.paymentRepo.UpdatePaymentStatus(ctx, q, o.OrderNumber, payment.StatusSucceeded, &now)
	})
	if err != nil {
		log.Error("payment completion failed", zap.Error(err))
		return err
	}
	if alreadyPaid {
		// Nothing happened, so nothing to announce.
		return nil
	}

	log.Info("order paid")
	s.notifier.NotifyUser(ctx, userID, "ORDER_PAID",
		fmt.Sprintf("payment for order %s confirmed", orderNumber))
	return nil
}

func (s *service) FailPayment(ctx context.Context, orderID uint) error {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "FailPayment"),
		zap.Uint("order_id", orderID),
	)

	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		o, err := s.repo.GetOrderForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}

		if o.Status == StatusPaymentFailed {
			return nil
		}
		if o.Status != StatusPendingPayment {
			return ErrInvalidStatus
		}

		// Stock was never decremented, only the coupon needs undoing.
		if o.UserCouponID != nil {
			if _, err := s.couponRepo.ReverseUsage(ctx, q, *o.UserCouponID, o.ID); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateStatus(ctx, q, o.ID, StatusPaymentFailed); err != nil {
			return err
		}
		return s.paymentRepo.UpdatePaymentStatus(ctx, q, o.OrderNumber, payment.StatusFailed, nil)
	})
	if err != nil {
		log.Error("failed to mark payment failed", zap.Error(err))
		return err
	}

	log.Info("order marked payment failed")
	return nil
}

func (s *service) CancelOrder(ctx context.Context, orderID, requesterID uint, isAdmin bool, reason string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "CancelOrder"),
		zap.Uint("order_id", orderID),
		zap.Uint("requester_id", requesterID),
	)

	var result *Order
	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		o, err := s.repo.GetOrderForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}

		if !isAdmin && o.UserID != requesterID {
			return ErrForbidden
		}

		if o.Status == StatusCancelled {
			// Second cancel attempt is a no-op.
			result = o
			return nil
		}
		if !IsCancellable(o.Status) {
			return ErrInvalidStatus
		}

		// Restore stock only when it was actually deducted, i.e. the
		// order passed the payment gate.
		deducted := StockDeducted(o.Status)
		if deducted {
			for _, item := range lockOrdered(o.Items) {
				if err := s.guard.Restore(ctx, q, item.ProductID, item.OptionID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if o.UserCouponID != nil {
			if _, err := s.couponRepo.ReverseUsage(ctx, q, *o.UserCouponID, o.ID); err != nil {
				return err
			}
		}

		// Captured payments are refunded in full, exactly once. A
		// gateway failure aborts the transaction so stock and coupon
		// are not reverted without a matching refund.
		if deducted {
			if err := s.refundCancelledOrder(ctx, q, o); err != nil {
				return err
			}
		}

		if err := s.repo.MarkCancelled(ctx, q, o.ID, reason); err != nil {
			return err
		}

		now := time.Now()
		o.Status = StatusCancelled
		o.CancelReason = &reason
		o.CancelledAt = &now
		result = o
		return nil
	})
	if err != nil {
		log.Warn("cancellation rejected", zap.Error(err))
		return nil, err
	}

	log.Info("order cancelled", zap.String("reason", reason))
	s.notifier.NotifyUser(ctx, result.UserID, "ORDER_CANCELLED",
		fmt.Sprintf("order %s has been cancelled", result.OrderNumber))
	return result, nil
}

func (s *service) refundCancelledOrder(ctx context.Context, q db.Queryer, o *Order) error {
	p, err := s.paymentRepo.GetPaymentByOrder(ctx, o.ID)
	if err != nil {
		return err
	}

	refunds, err := s.paymentRepo.GetRefundsByOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	for _, ref := range refunds {
		if ref.ReturnRequestID == nil {
			// Full cancellation refund already issued.
			return nil
		}
	}

	gwRefund, err := s.paymentGate.CreateRefund(ctx, p.ProviderPaymentID, o.FinalAmount, "ORDER_CANCELLED")
	if err != nil {
		return fmt.Errorf("refund failed, aborting cancellation: %w", err)
	}

	err = s.paymentRepo.SaveRefund(ctx, q, &payment.Refund{
		PaymentID:        p.ID,
		OrderID:          o.ID,
		ProviderRefundID: gwRefund.ProviderRefundID,
		Amount:           o.FinalAmount,
		Reason:           "ORDER_CANCELLED",
		Status:           gwRefund.Status,
	})
	if errors.Is(err, payment.ErrDuplicateRefund) {
		return nil
	}
	return err
}

func (s *service) ConfirmOrder(ctx context.Context, orderID, userID uint) (*Order, error) {
	var result *Order
	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		o, err := s.repo.GetOrderForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrForbidden
		}
		if o.Status != StatusDelivered {
			return ErrInvalidStatus
		}

		if o.ConfirmedAt == nil {
			if err := s.repo.SetConfirmed(ctx, q, o.ID); err != nil {
				return err
			}
			now := time.Now()
			o.ConfirmedAt = &now
		}

		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uint, status OrderStatus) error {
	return s.txm.Transaction(ctx, func(q db.Queryer) error {
		o, err := s.repo.GetOrderForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, status) {
			return ErrInvalidTransition
		}

		if status == StatusDelivered {
			return s.repo.SetDelivered(ctx, q, o.ID)
		}
		return s.repo.UpdateStatus(ctx, q, o.ID, status)
	})
}

func (s *service) UpdateTrackingNumber(ctx context.Context, orderID uint, trackingNumber string) error {
	err := s.txm.Transaction(ctx, func(q db.Queryer) error {
		o, err := s.repo.GetOrderForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		// Setting a tracking number while PAID or PREPARING advances
		// the order to SHIPPED.
		if o.Status != StatusPaid && o.Status != StatusPreparing {
			return ErrInvalidStatus
		}
		return s.repo.SetTrackingNumber(ctx, q, o.ID, trackingNumber)
	})
	if err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("order shipped",
		zap.Uint("order_id", orderID),
		zap.String("tracking_number", trackingNumber),
	)
	return nil
}

func (s *service) GetOrderDetail(ctx context.Context, orderID, userID uint, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != userID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) GetOrders(ctx context.Context, userID uint, status *OrderStatus, limit, page int) ([]*Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	return s.repo.GetOrders(ctx, userID, status, limit, (page-1)*limit)
}

func (s *service) ResolveOrderID(ctx context.Context, orderNumber string) (uint, error) {
	return s.repo.GetIDByOrderNumber(ctx, orderNumber)
}

// lockOrdered returns a copy sorted by product then option id, the
// order in which stock row locks must be taken.
func lockOrdered(items []OrderItem) []OrderItem {
	out := append([]OrderItem(nil), items...)
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

func chargeItems(items []OrderItem) []payment.ChargeItem {
	out := make([]payment.ChargeItem, 0, len(items))
	for _, item := range items {
		out = append(out, payment.ChargeItem{
			Name:     item.ProductName,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	return out
}
