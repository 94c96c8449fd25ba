package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository defines the database operations of the catalog
type ProductRepository interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// GetProducts returns the products among productIDs that exist; unknown
	// ids are simply absent from the result.
	GetProducts(ctx context.Context, productIDs []string) ([]Product, error)

	ListProducts(ctx context.Context) ([]Product, error)
	UpsertProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

// PostgresProductRepository implements ProductRepository using PostgreSQL
type PostgresProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &PostgresProductRepository{
		db: db,
	}
}

func (r *PostgresProductRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, price, quantity, updated_at
		FROM products
		WHERE id = $1
	`, productID).Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", productID, err)
	}
	return &p, nil
}

func (r *PostgresProductRepository) GetProducts(ctx context.Context, productIDs []string) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, price, quantity, updated_at
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return scanProducts(rows)
}

func (r *PostgresProductRepository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, price, quantity, updated_at
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return scanProducts(rows)
}

func (r *PostgresProductRepository) UpsertProduct(ctx context.Context, product *Product) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, price, quantity, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    price = EXCLUDED.price,
		    quantity = EXCLUDED.quantity,
		    updated_at = NOW()
		RETURNING updated_at
	`, product.ID, product.Name, product.Price, product.Quantity).Scan(&product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.ID, err)
	}
	return nil
}

func (r *PostgresProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}
