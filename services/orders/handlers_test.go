package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderUseCase struct {
	mock.Mock
}

func (m *MockOrderUseCase) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	args := m.Called(ctx, req)
	o, _ := args.Get(0).(*Order)
	return o, args.Error(1)
}

func (m *MockOrderUseCase) ConfirmOrder(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*Order)
	return o, args.Error(1)
}

func (m *MockOrderUseCase) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*Order)
	return o, args.Error(1)
}

func newTestRouter(uc OrderUseCaseInterface, enrichment EnrichmentInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewOrderHandler(uc, enrichment).Register(r)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestOrderHandler_GetOrder_Enriched(t *testing.T) {
	repo := new(MockOrderRepository)
	catalog := new(MockCatalogClient)
	repo.On("GetByID", mock.Anything, "O1").Return(scenarioO1(), nil)
	repo.On("GetByID", mock.Anything, "missing-id").Return(nil, ErrOrderNotFound)
	catalog.On("GetBatch", mock.Anything, []string{"P01", "P02"}).Return(map[string]Product{
		"P01": product("P01", "Computer", 2500, 5),
	}, nil)
	r := newTestRouter(new(MockOrderUseCase), newTestEnrichment(repo, catalog, testConfig()))

	w := serve(r, http.MethodGet, "/api/orders/O1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		ID       string `json:"id"`
		Degraded bool   `json:"degraded"`
		Items    []struct {
			ProductID      string           `json:"product_id"`
			Price          string           `json:"price"`
			CurrentProduct *json.RawMessage `json:"current_product"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "O1", got.ID)
	assert.True(t, got.Degraded)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "2300", got.Items[0].Price)
	assert.NotNil(t, got.Items[0].CurrentProduct)
	assert.Equal(t, "1200", got.Items[1].Price)
	assert.Nil(t, got.Items[1].CurrentProduct)

	w = serve(r, http.MethodGet, "/api/orders/missing-id", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_ListOrders(t *testing.T) {
	t.Run("catalog outage still answers 200", func(t *testing.T) {
		repo := new(MockOrderRepository)
		catalog := new(MockCatalogClient)
		repo.On("ListAll", mock.Anything).Return([]Order{*scenarioO1()}, nil)
		catalog.On("GetBatch", mock.Anything, mock.Anything).Return(nil, errCatalogDown)
		r := newTestRouter(new(MockOrderUseCase), newTestEnrichment(repo, catalog, testConfig()))

		w := serve(r, http.MethodGet, "/api/orders", "")

		require.Equal(t, http.StatusOK, w.Code)
		var got []EnrichedOrder
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.True(t, got[0].Degraded)
	})

	t.Run("order store outage answers 503", func(t *testing.T) {
		repo := new(MockOrderRepository)
		repo.On("ListAll", mock.Anything).Return(nil, errors.New("conn refused"))
		r := newTestRouter(new(MockOrderUseCase), newTestEnrichment(repo, new(MockCatalogClient), testConfig()))

		w := serve(r, http.MethodGet, "/api/orders", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NotContains(t, w.Body.String(), "conn refused")
	})
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	uc := new(MockOrderUseCase)
	uc.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req CreateOrderRequest) bool {
		return len(req.Items) == 1 && req.Items[0].ProductID == "P01"
	})).Return(&Order{ID: "new-id", State: OrderStatePending}, nil).Once()
	uc.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, ErrInvalidOrder)
	r := newTestRouter(uc, newTestEnrichment(new(MockOrderRepository), new(MockCatalogClient), testConfig()))

	w := serve(r, http.MethodPost, "/api/orders", `{"items":[{"product_id":"P01","quantity":5,"price":"2300"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"new-id"`)

	w = serve(r, http.MethodPost, "/api/orders", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/api/orders", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_StateTransitions(t *testing.T) {
	uc := new(MockOrderUseCase)
	uc.On("ConfirmOrder", mock.Anything, "O1").Return(&Order{ID: "O1", State: OrderStateConfirmed}, nil)
	uc.On("ConfirmOrder", mock.Anything, "O2").Return(nil, ErrInvalidStateTransition)
	uc.On("CancelOrder", mock.Anything, "O3").Return(nil, ErrOrderNotFound)
	uc.On("CancelOrder", mock.Anything, "O4").Return(nil, ErrUpstreamUnavailable)
	r := newTestRouter(uc, newTestEnrichment(new(MockOrderRepository), new(MockCatalogClient), testConfig()))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/orders/O1/confirm", "").Code)
	assert.Equal(t, http.StatusConflict, serve(r, http.MethodPost, "/api/orders/O2/confirm", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/api/orders/O3/cancel", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/api/orders/O4/cancel", "").Code)
}
