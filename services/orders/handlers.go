package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type OrderUseCaseInterface interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	ConfirmOrder(ctx context.Context, orderID string) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) (*Order, error)
}

type EnrichmentInterface interface {
	EnrichOne(ctx context.Context, orderID string) (EnrichedOrder, error)
	ListEnriched(ctx context.Context) ([]EnrichedOrder, error)
}

// OrderHandler holds the order HTTP handlers
type OrderHandler struct {
	useCase    OrderUseCaseInterface
	enrichment EnrichmentInterface
}

func NewOrderHandler(useCase OrderUseCaseInterface, enrichment EnrichmentInterface) *OrderHandler {
	return &OrderHandler{
		useCase:    useCase,
		enrichment: enrichment,
	}
}

func (h *OrderHandler) Register(r gin.IRouter) {
	api := r.Group("/api/orders")
	api.GET("", h.ListOrders)
	api.POST("", h.CreateOrder)
	api.GET("/:id", h.GetOrder)
	api.POST("/:id/confirm", h.ConfirmOrder)
	api.POST("/:id/cancel", h.CancelOrder)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.enrichment.ListEnriched(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.enrichment.EnrichOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.useCase.CreateOrder(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	order, err := h.useCase.ConfirmOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.useCase.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "orders-service",
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrUpstreamUnavailable.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
