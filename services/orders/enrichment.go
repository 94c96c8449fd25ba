package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "orders-service/enrichment"

type EnrichmentConfig struct {
	// CatalogTimeout bounds each GetBatch attempt.
	CatalogTimeout time.Duration
	// CatalogRetryCount is the number of retries after the first failed attempt.
	CatalogRetryCount int
	// CatalogRetryDelay is the fixed pause between attempts.
	CatalogRetryDelay time.Duration
}

// EnrichmentService merges current catalog snapshots onto stored orders.
//
// Every invocation resolves all referenced products with a single batch
// lookup. Catalog failures never fail the call: unresolved line items are
// returned without a snapshot. Only Order Store failures are surfaced.
// The service holds no per-request state and is safe for concurrent use.
type EnrichmentService struct {
	orders  OrderRepository
	catalog CatalogClient
	cfg     EnrichmentConfig
	logger  *zap.Logger
	tracer  trace.Tracer

	batchAttempts metric.Int64Counter
	batchFailures metric.Int64Counter
	degradedItems metric.Int64Counter
}

func NewEnrichmentService(
	orders OrderRepository,
	catalog CatalogClient,
	cfg EnrichmentConfig,
	logger *zap.Logger,
) *EnrichmentService {
	meter := otel.Meter(instrumentationName)
	return &EnrichmentService{
		orders:        orders,
		catalog:       catalog,
		cfg:           cfg,
		logger:        logger,
		tracer:        otel.Tracer(instrumentationName),
		batchAttempts: newCounter(meter, "catalog.batch.attempts", "Catalog batch lookups issued, retries included."),
		batchFailures: newCounter(meter, "catalog.batch.failures", "Catalog batch lookups that failed or timed out."),
		degradedItems: newCounter(meter, "enrichment.degraded_items", "Line items returned without a catalog snapshot."),
	}
}

// EnrichOne loads one order and enriches it. It fails with ErrOrderNotFound
// when the order does not exist and ErrUpstreamUnavailable when the Order
// Store cannot be read; never because of the catalog.
func (s *EnrichmentService) EnrichOne(ctx context.Context, orderID string) (EnrichedOrder, error) {
	ctx, span := s.tracer.Start(ctx, "enrichment.enrich_one",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return EnrichedOrder{}, s.orderStoreError(span, err)
	}

	return s.Enrich(ctx, []Order{*order})[0], nil
}

// ListEnriched loads every order and enriches them with one catalog lookup.
func (s *EnrichmentService) ListEnriched(ctx context.Context) ([]EnrichedOrder, error) {
	ctx, span := s.tracer.Start(ctx, "enrichment.list")
	defer span.End()

	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, s.orderStoreError(span, err)
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))

	return s.Enrich(ctx, orders), nil
}

// Enrich attaches current catalog snapshots to the line items of orders.
// The output has one entry per input order, in the same order.
func (s *EnrichmentService) Enrich(ctx context.Context, orders []Order) []EnrichedOrder {
	ctx, span := s.tracer.Start(ctx, "enrichment.enrich")
	defer span.End()

	ids := collectProductIDs(orders)
	span.SetAttributes(
		attribute.Int("orders.count", len(orders)),
		attribute.Int("catalog.product_ids", len(ids)),
	)

	var snapshots map[string]Product
	if len(ids) > 0 {
		snapshots = s.fetchCatalog(ctx, ids)
	}

	out := make([]EnrichedOrder, len(orders))
	var degraded int64
	for i := range orders {
		var missing int
		out[i], missing = enrichOrder(orders[i], snapshots)
		degraded += int64(missing)
	}

	if degraded > 0 {
		s.degradedItems.Add(ctx, degraded)
		span.SetAttributes(attribute.Int64("enrichment.degraded_items", degraded))
		s.logger.Debug("[ENRICH] line items without catalog snapshot", zap.Int64("count", degraded))
	}
	return out
}

// fetchCatalog performs the batch lookup with the configured timeout and
// retry policy. It returns nil when every attempt failed or the caller went
// away; callers treat that as "nothing resolved".
func (s *EnrichmentService) fetchCatalog(ctx context.Context, ids []string) map[string]Product {
	attempts := 1 + max(s.cfg.CatalogRetryCount, 0)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && !wait(ctx, s.cfg.CatalogRetryDelay) {
			break
		}

		products, err := s.fetchOnce(ctx, ids, attempt)
		if err == nil {
			return products
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, ErrCatalogRejected) {
			break
		}
		s.logger.Warn("[CATALOG] batch lookup failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
	}

	if ctx.Err() != nil {
		s.logger.Info("[CATALOG] request cancelled, abandoning enrichment", zap.Error(ctx.Err()))
		return nil
	}
	s.logger.Error("[CATALOG] unavailable, serving orders without product data",
		zap.Int("product_ids", len(ids)),
		zap.Error(lastErr),
	)
	return nil
}

func (s *EnrichmentService) fetchOnce(ctx context.Context, ids []string, attempt int) (map[string]Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.get_batch",
		trace.WithAttributes(attribute.Int("catalog.attempt", attempt)))
	defer span.End()

	if s.cfg.CatalogTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CatalogTimeout)
		defer cancel()
	}

	s.batchAttempts.Add(ctx, 1)
	products, err := s.catalog.GetBatch(ctx, ids)
	if err != nil {
		s.batchFailures.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog batch lookup failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("catalog.found", len(products)))
	if products == nil {
		products = map[string]Product{}
	}
	return products, nil
}

func (s *EnrichmentService) orderStoreError(span trace.Span, err error) error {
	if errors.Is(err, ErrOrderNotFound) {
		span.SetAttributes(attribute.Bool("order.found", false))
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "order store unavailable")
	s.logger.Error("[ENRICH] order store read failed", zap.Error(err))
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

func enrichOrder(order Order, snapshots map[string]Product) (EnrichedOrder, int) {
	enriched := EnrichedOrder{
		ID:    order.ID,
		Date:  order.Date,
		State: order.State,
		Items: make([]EnrichedLineItem, len(order.Items)),
	}

	missing := 0
	for i, item := range order.Items {
		enriched.Items[i] = EnrichedLineItem{LineItem: item}
		if p, ok := snapshots[item.ProductID]; ok {
			enriched.Items[i].CurrentProduct = &p
			continue
		}
		missing++
	}
	enriched.Degraded = missing > 0
	return enriched, missing
}

// collectProductIDs returns the sorted set of product ids across orders.
func collectProductIDs(orders []Order) []string {
	seen := make(map[string]struct{})
	for i := range orders {
		for _, id := range orders[i].ProductIDs() {
			seen[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// wait pauses for d unless ctx ends first; it reports whether to continue.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func newCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil || c == nil {
		return noop.Int64Counter{}
	}
	return c
}
