package returns

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCreateReturnRequestRepo(t *testing.T) {
	conn, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rr := &ReturnRequest{
			OrderID:              100,
			UserID:               1,
			Status:               StatusRequested,
			ReasonCategory:       ReasonDefectiveProduct,
			DetailedReason:       "arrived broken",
			ItemRefundAmount:     20000,
			ShippingRefundAmount: 3000,
			TotalRefundAmount:    23000,
			Items: []ReturnItem{
				{OrderItemID: 10, ProductID: 1, Quantity: 2, RefundAmount: 20000},
			},
		}

		mock.ExpectQuery(`INSERT INTO return_requests`).
			WithArgs(int64(100), int64(1), "REQUESTED", "DEFECTIVE_PRODUCT", "arrived broken",
				int64(20000), int64(3000), int64(23000)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(50, time.Now()))
		mock.ExpectQuery(`INSERT INTO return_items`).
			WithArgs(int64(50), int64(10), int64(1), nil, 2, int64(20000)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		err := repo.CreateReturnRequest(ctx, conn, rr)

		assert.NoError(t, err)
		assert.Equal(t, uint(50), rr.ID)
		assert.Equal(t, uint(50), rr.Items[0].ReturnRequestID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHasOpenReturn(t *testing.T) {
	conn, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	ctx := context.Background()

	t.Run("Open return exists", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(100), "REQUESTED", "APPROVED").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		open, err := repo.HasOpenReturn(ctx, conn, 100)
		assert.NoError(t, err)
		assert.True(t, open)
	})

	t.Run("No open return", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(100), "REQUESTED", "APPROVED").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		open, err := repo.HasOpenReturn(ctx, conn, 100)
		assert.NoError(t, err)
		assert.False(t, open)
	})
}

func TestGetReturnForUpdate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`(?s)SELECT.+FROM return_requests.+FOR UPDATE`).
			WithArgs(int64(50)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "order_id", "user_id", "status", "reason_category", "detailed_reason",
				"item_refund_amount", "shipping_refund_amount", "total_refund_amount",
				"reject_reason", "refunded_at", "created_at", "updated_at",
			}).AddRow(50, 100, 1, "APPROVED", "DEFECTIVE_PRODUCT", "broken",
				int64(20000), int64(3000), int64(23000), nil, nil, now, now))
		mock.ExpectQuery(`(?s)SELECT.+FROM return_items`).
			WithArgs(int64(50)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "return_request_id", "order_item_id", "product_id", "option_id", "quantity", "refund_amount",
			}).AddRow(1, 50, 10, 1, nil, 2, int64(20000)))

		rr, err := repo.GetReturnForUpdate(ctx, conn, 50)

		assert.NoError(t, err)
		assert.Equal(t, StatusApproved, rr.Status)
		assert.Len(t, rr.Items, 1)
		assert.Equal(t, int64(23000), rr.TotalRefundAmount)
	})

	t.Run("Error - not found", func(t *testing.T) {
		mock.ExpectQuery(`(?s)SELECT.+FROM return_requests.+FOR UPDATE`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetReturnForUpdate(ctx, conn, 99)
		assert.ErrorIs(t, err, ErrReturnNotFound)
	})
}
