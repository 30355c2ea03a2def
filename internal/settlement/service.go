package settlement

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"lokapasar-be/internal/logger"
)

type Service interface {
	// CreateSettlement builds one seller's statement for the period.
	// A settlement already existing for the exact (seller, period)
	// fails with ErrDuplicateSettlement.
	CreateSettlement(ctx context.Context, sellerID uint, start, end time.Time) (*Settlement, error)

	// CreateForAllSellers runs CreateSettlement per active seller.
	// Sellers are processed independently; duplicates are skipped and
	// one seller's failure does not block the rest.
	CreateForAllSellers(ctx context.Context, start, end time.Time) ([]*Settlement, error)

	Approve(ctx context.Context, settlementID uint) (*Settlement, error)
	MarkPaid(ctx context.Context, settlementID uint) (*Settlement, error)
	Cancel(ctx context.Context, settlementID uint) (*Settlement, error)
	Delete(ctx context.Context, settlementID uint) error

	GetSettlement(ctx context.Context, settlementID uint) (*Settlement, error)
	GetSettlementsBySeller(ctx context.Context, sellerID uint, page, limit int) ([]*Settlement, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// commission rounds half-up on the minor-unit amount.
func commission(totalSales int64, rate float64) int64 {
	return int64(math.Round(float64(totalSales) * rate / 100.0))
}

func (s *service) CreateSettlement(ctx context.Context, sellerID uint, start, end time.Time) (*Settlement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "CreateSettlement"),
		zap.Uint("seller_id", sellerID),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	if start.After(end) {
		return nil, ErrInvalidPeriod
	}

	seller, err := s.repo.GetSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.AggregateSales(ctx, sellerID, start, end)
	if err != nil {
		return nil, err
	}

	commissionAmount := commission(summary.TotalSales, seller.CommissionRate)
	stl := &Settlement{
		SellerID:         sellerID,
		StartDate:        start,
		EndDate:          end,
		TotalSales:       summary.TotalSales,
		OrderCount:       summary.ItemCount,
		CommissionRate:   seller.CommissionRate,
		CommissionAmount: commissionAmount,
		NetAmount:        summary.TotalSales - commissionAmount,
		Status:           StatusPending,
	}

	if err := s.repo.CreateSettlement(ctx, stl); err != nil {
		return nil, err
	}

	log.Info("settlement created",
		zap.Uint("settlement_id", stl.ID),
		zap.Int64("total_sales", stl.TotalSales),
		zap.Int64("net_amount", stl.NetAmount),
	)
	return stl, nil
}

func (s *service) CreateForAllSellers(ctx context.Context, start, end time.Time) ([]*Settlement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "CreateForAllSellers"),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	if start.After(end) {
		return nil, ErrInvalidPeriod
	}

	sellers, err := s.repo.ListActiveSellers(ctx)
	if err != nil {
		return nil, err
	}

	var created []*Settlement
	for _, seller := range sellers {
		stl, err := s.CreateSettlement(ctx, seller.ID, start, end)
		if errors.Is(err, ErrDuplicateSettlement) {
			log.Info("settlement already exists, skipping", zap.Uint("seller_id", seller.ID))
			continue
		}
		if err != nil {
			log.Error("settlement failed for seller",
				zap.Uint("seller_id", seller.ID), zap.Error(err))
			continue
		}
		created = append(created, stl)
	}

	log.Info("batch settlement finished",
		zap.Int("sellers", len(sellers)), zap.Int("created", len(created)))
	return created, nil
}

func (s *service) Approve(ctx context.Context, settlementID uint) (*Settlement, error) {
	return s.transition(ctx, settlementID, StatusPending, StatusApproved)
}

func (s *service) MarkPaid(ctx context.Context, settlementID uint) (*Settlement, error) {
	return s.transition(ctx, settlementID, StatusApproved, StatusPaid)
}

func (s *service) Cancel(ctx context.Context, settlementID uint) (*Settlement, error) {
	stl, err := s.repo.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	switch stl.Status {
	case StatusPaid:
		return nil, ErrSettlementImmutable
	case StatusCancelled:
		return stl, nil
	}
	if err := s.repo.UpdateStatus(ctx, settlementID, StatusCancelled); err != nil {
		return nil, err
	}
	stl.Status = StatusCancelled
	return stl, nil
}

func (s *service) Delete(ctx context.Context, settlementID uint) error {
	stl, err := s.repo.GetSettlement(ctx, settlementID)
	if err != nil {
		return err
	}
	if stl.Status == StatusPaid {
		return ErrSettlementImmutable
	}
	return s.repo.Delete(ctx, settlementID)
}

func (s *service) transition(ctx context.Context, settlementID uint, from, to SettlementStatus) (*Settlement, error) {
	stl, err := s.repo.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if stl.Status != from {
		return nil, ErrInvalidSettlementSts
	}
	if err := s.repo.UpdateStatus(ctx, settlementID, to); err != nil {
		return nil, err
	}
	stl.Status = to
	return stl, nil
}

func (s *service) GetSettlement(ctx context.Context, settlementID uint) (*Settlement, error) {
	return s.repo.GetSettlement(ctx, settlementID)
}

func (s *service) GetSettlementsBySeller(ctx context.Context, sellerID uint, page, limit int) ([]*Settlement, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}
	return s.repo.GetSettlementsBySeller(ctx, sellerID, limit, (page-1)*limit)
}
