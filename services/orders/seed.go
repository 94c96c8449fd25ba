package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

const sampleOrderCount = 5

var sampleProductIDs = []string{"P01", "P02", "P03"}

// SeedSampleOrders creates a handful of PENDING orders against the demo
// catalog when the store is empty. It returns the number of orders created.
func SeedSampleOrders(ctx context.Context, repository OrderRepository, rnd *rand.Rand) (int, error) {
	existing, err := repository.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing orders: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i := 0; i < sampleOrderCount; i++ {
		order, err := NewOrder(sampleItems(rnd))
		if err != nil {
			return i, err
		}
		if _, err := repository.Create(ctx, order); err != nil {
			return i, fmt.Errorf("failed to seed order: %w", err)
		}
	}
	return sampleOrderCount, nil
}

func sampleItems(rnd *rand.Rand) []LineItem {
	items := make([]LineItem, 0, len(sampleProductIDs))
	for _, id := range sampleProductIDs {
		items = append(items, LineItem{
			ProductID: id,
			Quantity:  1 + rnd.IntN(20),
			// 100.00 .. 6099.99
			Price: decimal.New(10000+rnd.Int64N(600000), -2),
		})
	}
	return items
}
