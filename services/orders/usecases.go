package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateOrderRequest struct {
	Items []CreateLineItemRequest `json:"items" binding:"required"`
}

type CreateLineItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderUseCase holds the order write path. It never talks to the catalog:
// product ids are stored as given.
type OrderUseCase struct {
	repository OrderRepository
	logger     *zap.Logger
}

func NewOrderUseCase(repository OrderRepository, logger *zap.Logger) *OrderUseCase {
	return &OrderUseCase{
		repository: repository,
		logger:     logger,
	}
}

func (uc *OrderUseCase) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	items := make([]LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	order, err := NewOrder(items)
	if err != nil {
		return nil, err
	}

	created, err := uc.repository.Create(ctx, order)
	if err != nil {
		uc.logger.Error("[CREATE ORDER] failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	uc.logger.Info("[CREATE ORDER] created",
		zap.String("order_id", created.ID),
		zap.Int("items", len(created.Items)),
	)
	return created, nil
}

func (uc *OrderUseCase) ConfirmOrder(ctx context.Context, orderID string) (*Order, error) {
	return uc.transition(ctx, orderID, OrderStateConfirmed)
}

func (uc *OrderUseCase) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	return uc.transition(ctx, orderID, OrderStateCancelled)
}

func (uc *OrderUseCase) transition(ctx context.Context, orderID string, next OrderState) (*Order, error) {
	order, err := uc.repository.GetByID(ctx, orderID)
	if err != nil {
		return nil, storeError(err)
	}

	from := order.State
	if err := order.TransitionTo(next); err != nil {
		return nil, err
	}

	if err := uc.repository.UpdateState(ctx, orderID, from, next); err != nil {
		uc.logger.Warn("[ORDER STATE] update rejected",
			zap.String("order_id", orderID),
			zap.String("from", string(from)),
			zap.String("to", string(next)),
			zap.Error(err),
		)
		return nil, storeError(err)
	}

	uc.logger.Info("[ORDER STATE] updated",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)
	return order, nil
}

func storeError(err error) error {
	if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrInvalidStateTransition) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}
