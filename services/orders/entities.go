package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrUpstreamUnavailable    = errors.New("order store unavailable")
	ErrInvalidOrder           = errors.New("invalid order")
	ErrInvalidStateTransition = errors.New("invalid order state transition")
)

// OrderState is the order lifecycle: PENDING -> CONFIRMED -> CANCELLED, or
// PENDING -> CANCELLED. CANCELLED is terminal.
type OrderState string

const (
	OrderStatePending   OrderState = "PENDING"
	OrderStateConfirmed OrderState = "CONFIRMED"
	OrderStateCancelled OrderState = "CANCELLED"
)

func (s OrderState) rank() int {
	switch s {
	case OrderStatePending:
		return 0
	case OrderStateConfirmed:
		return 1
	case OrderStateCancelled:
		return 2
	}
	return -1
}

func (s OrderState) Valid() bool {
	return s.rank() >= 0
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle
// monotonic.
func (s OrderState) CanTransitionTo(next OrderState) bool {
	return s.Valid() && next.Valid() && next.rank() > s.rank()
}

// LineItem is one product line of an order. Price is the price agreed when
// the order was placed and is never rewritten from the catalog.
type LineItem struct {
	ID        int64           `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID    string     `json:"id"`
	Date  time.Time  `json:"date"`
	State OrderState `json:"state"`
	Items []LineItem `json:"items"`
}

// NewOrder builds a PENDING order dated today (UTC) from items.
func NewOrder(items []LineItem) (*Order, error) {
	order := &Order{
		Date:  today(),
		State: OrderStatePending,
		Items: items,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}
	for i, it := range o.Items {
		switch {
		case strings.TrimSpace(it.ProductID) == "":
			return fmt.Errorf("%w: item %d has no product_id", ErrInvalidOrder, i)
		case it.Quantity <= 0:
			return fmt.Errorf("%w: item %d quantity must be > 0", ErrInvalidOrder, i)
		case it.Price.IsNegative():
			return fmt.Errorf("%w: item %d price must be >= 0", ErrInvalidOrder, i)
		}
	}
	return nil
}

// TransitionTo moves the order to next or returns ErrInvalidStateTransition.
func (o *Order) TransitionTo(next OrderState) error {
	if !o.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, o.State, next)
	}
	o.State = next
	return nil
}

// ProductIDs returns the distinct product ids referenced by the order, in
// first-seen order.
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// Product is the catalog snapshot attached to an enriched line item.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// EnrichedLineItem is a read-only view: the stored line item plus the current
// catalog snapshot, nil when the product could not be resolved.
type EnrichedLineItem struct {
	LineItem
	CurrentProduct *Product `json:"current_product"`
}

type EnrichedOrder struct {
	ID    string             `json:"id"`
	Date  time.Time          `json:"date"`
	State OrderState         `json:"state"`
	Items []EnrichedLineItem `json:"items"`

	// Degraded is set when at least one line item has no catalog snapshot.
	Degraded bool `json:"degraded"`
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
