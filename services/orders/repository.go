package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository defines the database operations for orders
type OrderRepository interface {
	// GetByID returns the order with its items or ErrOrderNotFound
	GetByID(ctx context.Context, orderID string) (*Order, error)

	// ListAll returns every order, oldest first, items in insertion order
	ListAll(ctx context.Context) ([]Order, error)

	// Create stores a new order, assigning an id, PENDING state and today's
	// date when missing. Product ids are not checked against the catalog.
	Create(ctx context.Context, order *Order) (*Order, error)

	// UpdateState moves the order from one state to another only if the
	// stored state is still from.
	UpdateState(ctx context.Context, orderID string, from, to OrderState) error
}

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PostgresOrderRepository{
		db: db,
	}
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	err := r.db.QueryRow(ctx, `
		SELECT id, order_date, state
		FROM orders WHERE id = $1
	`, orderID).Scan(&order.ID, &order.Date, &order.State)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	items, err := r.itemsByOrder(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return &order, nil
}

func (r *PostgresOrderRepository) ListAll(ctx context.Context) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_date, state
		FROM orders
		ORDER BY order_date, created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := []Order{}
	ids := []string{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Date, &o.State); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.itemsByOrder(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *PostgresOrderRepository) Create(ctx context.Context, order *Order) (*Order, error) {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.State == "" {
		order.State = OrderStatePending
	}
	if order.Date.IsZero() {
		order.Date = today()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, order_date, state, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`, order.ID, order.Date, order.State)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		it := &order.Items[i]
		err := tx.QueryRow(ctx, `
			INSERT INTO line_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, order.ID, it.ProductID, it.Quantity, it.Price).Scan(&it.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create line item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

func (r *PostgresOrderRepository) UpdateState(ctx context.Context, orderID string, from, to OrderState) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET state = $1, updated_at = NOW()
		WHERE id = $2 AND state = $3
	`, to, orderID, from)
	if err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)", orderID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return fmt.Errorf("%w: order %s is no longer %s", ErrInvalidStateTransition, orderID, from)
}

func (r *PostgresOrderRepository) itemsByOrder(ctx context.Context, orderIDs []string) (map[string][]LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT order_id, id, product_id, quantity, price
		FROM line_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]LineItem, len(orderIDs))
	for rows.Next() {
		var orderID string
		var it LineItem
		if err := rows.Scan(&orderID, &it.ID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items[orderID] = append(items[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read line items: %w", err)
	}
	return items, nil
}
