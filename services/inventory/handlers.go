package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CatalogUseCaseInterface is what the HTTP layer needs from the use case
type CatalogUseCaseInterface interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	GetBatch(ctx context.Context, productIDs []string) (map[string]Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpsertProduct(ctx context.Context, product *Product) (*Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type BatchRequest struct {
	IDs []string `json:"ids"`
}

type BatchResponse struct {
	Products []Product `json:"products"`
}

type UpsertProductRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// ProductHandler holds the catalog HTTP handlers
type ProductHandler struct {
	useCase CatalogUseCaseInterface
}

func NewProductHandler(useCase CatalogUseCaseInterface) *ProductHandler {
	return &ProductHandler{useCase: useCase}
}

func (h *ProductHandler) Register(r gin.IRouter) {
	api := r.Group("/api/products")
	api.GET("", h.ListProducts)
	api.POST("/batch", h.GetBatch)
	api.GET("/:id", h.GetProduct)
	api.PUT("/:id", h.UpsertProduct)
	api.DELETE("/:id", h.DeleteProduct)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.useCase.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.useCase.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetBatch answers with the products that exist among the requested ids.
func (h *ProductHandler) GetBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found, err := h.useCase.GetBatch(c.Request.Context(), req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := BatchResponse{Products: make([]Product, 0, len(found))}
	for _, id := range dedupe(req.IDs) {
		if p, ok := found[id]; ok {
			resp.Products = append(resp.Products, p)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) UpsertProduct(c *gin.Context) {
	var req UpsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := NewProduct(c.Param("id"), req.Name, req.Price, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	saved, err := h.useCase.UpsertProduct(c.Request.Context(), product)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.useCase.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "inventory-service",
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidProduct), errors.Is(err, ErrBatchTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
