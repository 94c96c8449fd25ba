package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// DefaultCatalogPageSize matches the inventory service MAX_BATCH_SIZE default.
const DefaultCatalogPageSize = 500

// ErrCatalogRejected marks a 4xx answer from the catalog. Repeating the same
// request cannot succeed, so it is not retried.
var ErrCatalogRejected = errors.New("catalog rejected request")

// CatalogClient is the orders-side view of the inventory service. Any
// transport can implement it; enrichment only depends on this interface.
type CatalogClient interface {
	// GetBatch returns the known products among productIDs. Ids the catalog
	// does not know are absent from the map; that is not an error.
	GetBatch(ctx context.Context, productIDs []string) (map[string]Product, error)
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

type batchResponse struct {
	Products []Product `json:"products"`
}

// HTTPCatalogClient calls the inventory service REST API.
type HTTPCatalogClient struct {
	client   *resty.Client
	pageSize int
}

func NewHTTPCatalogClient(baseURL string, pageSize int) *HTTPCatalogClient {
	if pageSize <= 0 {
		pageSize = DefaultCatalogPageSize
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	return &HTTPCatalogClient{client: client, pageSize: pageSize}
}

// GetBatch splits productIDs into pages the inventory service accepts and
// merges the answers. Any failed page fails the whole lookup.
func (c *HTTPCatalogClient) GetBatch(ctx context.Context, productIDs []string) (map[string]Product, error) {
	products := make(map[string]Product, len(productIDs))
	for start := 0; start < len(productIDs); start += c.pageSize {
		end := min(start+c.pageSize, len(productIDs))
		if err := c.getPage(ctx, productIDs[start:end], products); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (c *HTTPCatalogClient) getPage(ctx context.Context, ids []string, into map[string]Product) error {
	var out batchResponse
	resp, err := c.request(ctx).
		SetBody(batchRequest{IDs: ids}).
		SetResult(&out).
		Post("/api/products/batch")
	if err != nil {
		return fmt.Errorf("catalog batch request failed: %w", err)
	}
	if rejected(resp.StatusCode()) {
		return fmt.Errorf("%w: status %d: %s", ErrCatalogRejected, resp.StatusCode(), resp.String())
	}
	if resp.IsError() {
		return fmt.Errorf("catalog batch returned status %d: %s", resp.StatusCode(), resp.String())
	}

	for _, p := range out.Products {
		into[p.ID] = p
	}
	return nil
}

// rejected reports 4xx answers other than the transient 408 and 429.
func rejected(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError
}

// request starts a call bound to ctx carrying the W3C trace context.
func (c *HTTPCatalogClient) request(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req
}
