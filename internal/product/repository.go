package product

import (
	"context"
	"database/sql"
	"errors"

	"lokapasar-be/internal/db"
)

type Repository interface {
	// GetOrderLine resolves the current price, seller and category of a
	// product or one of its options. Prices always come from here, never
	// from the client request.
	GetOrderLine(ctx context.Context, q db.Queryer, productID uint, optionID *uint) (*OrderLine, error)
	GetProductByID(ctx context.Context, productID uint) (*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) GetOrderLine(ctx context.Context, q db.Queryer, productID uint, optionID *uint) (*OrderLine, error) {
	var line OrderLine

	if optionID != nil {
		err := q.QueryRowContext(ctx, `
			SELECT p.id, po.id, p.name || ' / ' || po.name, po.price, p.seller_id, p.category_id
			FROM product_options po
			JOIN products p ON p.id = po.product_id
			WHERE po.id = $1 AND po.product_id = $2
		`, *optionID, productID).Scan(
			&line.ProductID, &line.OptionID, &line.Name, &line.Price, &line.SellerID, &line.CategoryID,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOptionNotFound
		}
		if err != nil {
			return nil, err
		}
		return &line, nil
	}

	err := q.QueryRowContext(ctx, `
		SELECT id, name, price, seller_id, category_id
		FROM products
		WHERE id = $1
	`, productID).Scan(
		&line.ProductID, &line.Name, &line.Price, &line.SellerID, &line.CategoryID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	return &line, nil
}

func (r *repository) GetProductByID(ctx context.Context, productID uint) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, seller_id, category_id, name, price, stock, status, created_at, updated_at
		FROM products
		WHERE id = $1
	`, productID).Scan(
		&p.ID, &p.SellerID, &p.CategoryID, &p.Name, &p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}
