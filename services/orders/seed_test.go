package main

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSeedSampleOrders_EmptyStore(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("ListAll", mock.Anything).Return([]Order{}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(o *Order) bool {
		if o.State != OrderStatePending || len(o.Items) != 3 {
			return false
		}
		for _, it := range o.Items {
			if it.Quantity < 1 || it.Quantity > 20 {
				return false
			}
			if it.Price.LessThan(decimal.NewFromInt(100)) || !it.Price.LessThan(decimal.NewFromInt(6100)) {
				return false
			}
		}
		return true
	})).Return(&Order{}, nil)

	n, err := SeedSampleOrders(context.Background(), repo, rand.New(rand.NewPCG(1, 2)))

	require.NoError(t, err)
	assert.Equal(t, sampleOrderCount, n)
	repo.AssertNumberOfCalls(t, "Create", sampleOrderCount)
}

func TestSeedSampleOrders_SkipsWhenOrdersExist(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("ListAll", mock.Anything).Return([]Order{*scenarioO1()}, nil)

	n, err := SeedSampleOrders(context.Background(), repo, rand.New(rand.NewPCG(1, 2)))

	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
