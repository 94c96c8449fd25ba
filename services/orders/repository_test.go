package main

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/matheusmosca/ecom-enrichment/pkg/database"
)

// newTestPool starts a disposable Postgres with the orders schema. Skipped
// with -short or when no container runtime is present.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("orders_db"),
		postgres.WithUsername("root"),
		postgres.WithPassword("pass"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(dsn, migrationsFS, "migrations"))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresOrderRepository(t *testing.T) {
	pool := newTestPool(t)
	repo := NewOrderRepository(pool)
	ctx := context.Background()

	order, err := NewOrder([]LineItem{
		{ProductID: "P01", Quantity: 5, Price: decimal.NewFromInt(2300)},
		{ProductID: "P02", Quantity: 10, Price: decimal.RequireFromString("1200.50")},
	})
	require.NoError(t, err)

	created, err := repo.Create(ctx, order)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.NotZero(t, created.Items[0].ID)
	assert.Greater(t, created.Items[1].ID, created.Items[0].ID)

	t.Run("get keeps items and prices", func(t *testing.T) {
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatePending, got.State)
		assert.True(t, got.Date.Equal(created.Date))
		require.Len(t, got.Items, 2)
		assert.Equal(t, "P01", got.Items[0].ProductID)
		assert.True(t, got.Items[1].Price.Equal(decimal.RequireFromString("1200.50")))

		_, err = repo.GetByID(ctx, "missing-id")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("unknown products are accepted", func(t *testing.T) {
		_, err := repo.Create(ctx, &Order{Items: []LineItem{{ProductID: "NOPE", Quantity: 1, Price: decimal.Zero}}})
		require.NoError(t, err)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, created.ID, all[0].ID)
		assert.Len(t, all[0].Items, 2)
		assert.Len(t, all[1].Items, 1)
	})

	t.Run("state compare and set", func(t *testing.T) {
		require.NoError(t, repo.UpdateState(ctx, created.ID, OrderStatePending, OrderStateConfirmed))

		err := repo.UpdateState(ctx, created.ID, OrderStatePending, OrderStateCancelled)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)

		err = repo.UpdateState(ctx, "missing-id", OrderStatePending, OrderStateConfirmed)
		assert.ErrorIs(t, err, ErrOrderNotFound)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, OrderStateConfirmed, got.State)
	})
}
