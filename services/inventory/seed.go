package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

var sampleProducts = []struct {
	ID       string
	Name     string
	Price    int64
	Quantity int
}{
	{"P01", "Computer", 2300, 5},
	{"P02", "Printer", 1200, 10},
	{"P03", "Smart Phone", 4200, 34},
}

// SeedSampleProducts upserts the demo catalog; running it twice is harmless.
func SeedSampleProducts(ctx context.Context, uc *CatalogUseCase) error {
	for _, s := range sampleProducts {
		product, err := NewProduct(s.ID, s.Name, decimal.NewFromInt(s.Price), s.Quantity)
		if err != nil {
			return err
		}
		if _, err := uc.UpsertProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", s.ID, err)
		}
	}
	return nil
}
