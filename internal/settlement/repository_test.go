package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestAggregateSales(t *testing.T) {
	conn, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(oi.price \* oi.quantity\), 0\), COUNT\(oi.id\)`).
			WithArgs(int64(3), "CANCELLED", "PAYMENT_FAILED", start, end).
			WillReturnRows(sqlmock.NewRows([]string{"sum", "count"}).AddRow(int64(750000), 9))

		summary, err := repo.AggregateSales(ctx, 3, start, end)

		assert.NoError(t, err)
		assert.Equal(t, int64(750000), summary.TotalSales)
		assert.Equal(t, 9, summary.ItemCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - no sales", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(SUM`).
			WithArgs(int64(3), "CANCELLED", "PAYMENT_FAILED", start, end).
			WillReturnRows(sqlmock.NewRows([]string{"sum", "count"}).AddRow(int64(0), 0))

		summary, err := repo.AggregateSales(ctx, 3, start, end)

		assert.NoError(t, err)
		assert.Equal(t, int64(0), summary.TotalSales)
		assert.Equal(t, 0, summary.ItemCount)
	})
}

func TestCreateSettlementRepo(t *testing.T) {
	conn, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	ctx := context.Background()

	stl := func() *Settlement {
		return &Settlement{
			SellerID:         3,
			StartDate:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:          time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			TotalSales:       750000,
			OrderCount:       9,
			CommissionRate:   5.5,
			CommissionAmount: 41250,
			NetAmount:        708750,
			Status:           StatusPending,
		}
	}

	t.Run("Success", func(t *testing.T) {
		s := stl()
		mock.ExpectQuery(`INSERT INTO settlements`).
			WithArgs(int64(3), s.StartDate, s.EndDate, int64(750000), 9, 5.5, int64(41250), int64(708750), "PENDING").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(77, time.Now()))

		err := repo.CreateSettlement(ctx, s)

		assert.NoError(t, err)
		assert.Equal(t, uint(77), s.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error - unique violation maps to duplicate", func(t *testing.T) {
		s := stl()
		mock.ExpectQuery(`INSERT INTO settlements`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "settlements_seller_period_key"})

		err := repo.CreateSettlement(ctx, s)

		assert.ErrorIs(t, err, ErrDuplicateSettlement)
	})
}

func TestUpdateStatusRepo(t *testing.T) {
	conn, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE settlements SET status`).
			WithArgs(int64(77), "APPROVED").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, 77, StatusApproved)
		assert.NoError(t, err)
	})

	t.Run("Error - missing settlement", func(t *testing.T) {
		mock.ExpectExec(`UPDATE settlements SET status`).
			WithArgs(int64(99), "APPROVED").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, 99, StatusApproved)
		assert.ErrorIs(t, err, ErrSettlementNotFound)
	})
}
