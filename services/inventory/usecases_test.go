package main

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// MockProductRepository for tests that do not need a real database
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(*Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) GetProducts(ctx context.Context, productIDs []string) ([]Product, error) {
	args := m.Called(ctx, productIDs)
	products, _ := args.Get(0).([]Product)
	return products, args.Error(1)
}

func (m *MockProductRepository) ListProducts(ctx context.Context) ([]Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]Product)
	return products, args.Error(1)
}

func (m *MockProductRepository) UpsertProduct(ctx context.Context, product *Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishProductChanged(ctx context.Context, event ProductChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestUseCase(repo ProductRepository, pub EventPublisher) *CatalogUseCase {
	return NewCatalogUseCase(repo, pub, noop.NewTracerProvider().Tracer("test"), zap.NewNop(), 3)
}

func TestCatalogUseCase_GetBatch_DedupesAndOmitsMissing(t *testing.T) {
	// Arrange
	repo := new(MockProductRepository)
	uc := newTestUseCase(repo, new(MockEventPublisher))
	p01 := Product{ID: "P01", Name: "Computer", Price: decimal.NewFromInt(2300), Quantity: 5}

	repo.On("GetProducts", mock.Anything, []string{"P01", "P02"}).Return([]Product{p01}, nil)

	// Act
	found, err := uc.GetBatch(context.Background(), []string{"P01", "P02", "P01", ""})

	// Assert
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "Computer", found["P01"].Name)
	_, ok := found["P02"]
	assert.False(t, ok)
	repo.AssertExpectations(t)
}

func TestCatalogUseCase_GetBatch_EmptySkipsStore(t *testing.T) {
	repo := new(MockProductRepository)
	uc := newTestUseCase(repo, new(MockEventPublisher))

	found, err := uc.GetBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, found)
	repo.AssertNotCalled(t, "GetProducts", mock.Anything, mock.Anything)
}

func TestCatalogUseCase_GetBatch_TooLarge(t *testing.T) {
	repo := new(MockProductRepository)
	uc := newTestUseCase(repo, new(MockEventPublisher))

	_, err := uc.GetBatch(context.Background(), []string{"P01", "P02", "P03", "P04"})

	assert.ErrorIs(t, err, ErrBatchTooLarge)
	repo.AssertNotCalled(t, "GetProducts", mock.Anything, mock.Anything)
}

func TestCatalogUseCase_GetBatch_StoreError(t *testing.T) {
	repo := new(MockProductRepository)
	uc := newTestUseCase(repo, new(MockEventPublisher))
	storeErr := errors.New("connection refused")

	repo.On("GetProducts", mock.Anything, []string{"P01"}).Return(nil, storeErr)

	_, err := uc.GetBatch(context.Background(), []string{"P01"})

	assert.ErrorIs(t, err, storeErr)
}

func TestCatalogUseCase_UpsertProduct_PublishesEvent(t *testing.T) {
	// Arrange
	repo := new(MockProductRepository)
	pub := new(MockEventPublisher)
	uc := newTestUseCase(repo, pub)
	product, err := NewProduct("P01", "Computer", decimal.NewFromInt(2500), 5)
	require.NoError(t, err)

	repo.On("UpsertProduct", mock.Anything, product).Return(nil)
	pub.On("PublishProductChanged", mock.Anything, mock.MatchedBy(func(e ProductChangedEvent) bool {
		return e.Type == ProductUpserted && e.ProductID == "P01" && e.Product == product
	})).Return(nil)

	// Act
	saved, err := uc.UpsertProduct(context.Background(), product)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, product, saved)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCatalogUseCase_UpsertProduct_PublishFailureIsNotFatal(t *testing.T) {
	repo := new(MockProductRepository)
	pub := new(MockEventPublisher)
	uc := newTestUseCase(repo, pub)
	product, _ := NewProduct("P01", "Computer", decimal.NewFromInt(2500), 5)

	repo.On("UpsertProduct", mock.Anything, product).Return(nil)
	pub.On("PublishProductChanged", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := uc.UpsertProduct(context.Background(), product)

	assert.NoError(t, err)
}

func TestCatalogUseCase_UpsertProduct_Invalid(t *testing.T) {
	repo := new(MockProductRepository)
	uc := newTestUseCase(repo, new(MockEventPublisher))

	_, err := uc.UpsertProduct(context.Background(), &Product{ID: "P01", Name: "Computer", Price: decimal.NewFromInt(-5)})

	assert.ErrorIs(t, err, ErrInvalidProduct)
	repo.AssertNotCalled(t, "UpsertProduct", mock.Anything, mock.Anything)
}

func TestCatalogUseCase_DeleteProduct(t *testing.T) {
	t.Run("publishes deletion", func(t *testing.T) {
		repo := new(MockProductRepository)
		pub := new(MockEventPublisher)
		uc := newTestUseCase(repo, pub)

		repo.On("DeleteProduct", mock.Anything, "P02").Return(nil)
		pub.On("PublishProductChanged", mock.Anything, mock.MatchedBy(func(e ProductChangedEvent) bool {
			return e.Type == ProductDeleted && e.ProductID == "P02" && e.Product == nil
		})).Return(nil)

		require.NoError(t, uc.DeleteProduct(context.Background(), "P02"))
		pub.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockProductRepository)
		pub := new(MockEventPublisher)
		uc := newTestUseCase(repo, pub)

		repo.On("DeleteProduct", mock.Anything, "P99").Return(ErrProductNotFound)

		err := uc.DeleteProduct(context.Background(), "P99")

		assert.ErrorIs(t, err, ErrProductNotFound)
		pub.AssertNotCalled(t, "PublishProductChanged", mock.Anything, mock.Anything)
	})
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, dedupe([]string{"b", "a", "b", "", "a"}))
	assert.Empty(t, dedupe(nil))
}
