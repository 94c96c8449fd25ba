package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type itemArg struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// parseItems reads PRODUCT:QUANTITY:PRICE values.
func parseItems(values []string) ([]itemArg, error) {
	items := make([]itemArg, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("item %q: want PRODUCT:QUANTITY:PRICE", v)
		}

		id := strings.TrimSpace(parts[0])
		if id == "" {
			return nil, fmt.Errorf("item %q: empty product id", v)
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("item %q: quantity must be a positive integer", v)
		}
		price, err := decimal.NewFromString(parts[2])
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("item %q: price must be a non-negative number", v)
		}

		items = append(items, itemArg{ProductID: id, Quantity: qty, Price: price})
	}
	return items, nil
}

type apiClient struct {
	client *resty.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (a *apiClient) get(ctx context.Context, path string, out io.Writer) error {
	resp, err := a.client.R().SetContext(ctx).Get(path)
	return a.print(resp, err, out)
}

func (a *apiClient) post(ctx context.Context, path string, body any, out io.Writer) error {
	req := a.client.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Post(path)
	return a.print(resp, err, out)
}

func (a *apiClient) print(resp *resty.Response, err error, out io.Writer) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s %s: %s: %s", resp.Request.Method, resp.Request.URL, resp.Status(), strings.TrimSpace(resp.String()))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp.Body(), "", "  "); err != nil {
		_, err = out.Write(resp.Body())
		return err
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(out)
	return err
}
