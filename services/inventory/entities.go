package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrBatchTooLarge   = errors.New("too many product ids in batch")
)

// Product is the catalog record of a sellable item.
type Product struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// NewProduct builds a validated product
func NewProduct(id, name string, price decimal.Decimal, quantity int) (*Product, error) {
	p := &Product{
		ID:        strings.TrimSpace(id),
		Name:      strings.TrimSpace(name),
		Price:     price,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidProduct)
	case p.Quantity < 0:
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidProduct)
	}
	return nil
}

// Product event types
const (
	ProductUpserted = "product.upserted"
	ProductDeleted  = "product.deleted"
)

// ProductChangedEvent is published after every catalog mutation.
type ProductChangedEvent struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
