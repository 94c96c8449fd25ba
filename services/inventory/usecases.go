package main

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CatalogUseCase holds the catalog business rules
type CatalogUseCase struct {
	repository   ProductRepository
	publisher    EventPublisher
	tracer       trace.Tracer
	logger       *zap.Logger
	maxBatchSize int
}

func NewCatalogUseCase(
	repository ProductRepository,
	publisher EventPublisher,
	tracer trace.Tracer,
	logger *zap.Logger,
	maxBatchSize int,
) *CatalogUseCase {
	return &CatalogUseCase{
		repository:   repository,
		publisher:    publisher,
		tracer:       tracer,
		logger:       logger,
		maxBatchSize: maxBatchSize,
	}
}

func (uc *CatalogUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	return uc.repository.GetProduct(ctx, productID)
}

// GetBatch resolves many products at once. Missing ids are left out of the
// result; only a store failure or an oversized batch is an error.
func (uc *CatalogUseCase) GetBatch(ctx context.Context, productIDs []string) (map[string]Product, error) {
	ctx, span := uc.tracer.Start(ctx, "catalog.get_batch")
	defer span.End()

	ids := dedupe(productIDs)
	span.SetAttributes(attribute.Int("catalog.requested_ids", len(ids)))

	if len(ids) == 0 {
		return map[string]Product{}, nil
	}
	if uc.maxBatchSize > 0 && len(ids) > uc.maxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(ids), uc.maxBatchSize)
	}

	products, err := uc.repository.GetProducts(ctx, ids)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("[GET BATCH] failed", zap.Int("ids", len(ids)), zap.Error(err))
		return nil, err
	}

	found := make(map[string]Product, len(products))
	for _, p := range products {
		found[p.ID] = p
	}
	span.SetAttributes(attribute.Int("catalog.found_ids", len(found)))

	if missing := len(ids) - len(found); missing > 0 {
		uc.logger.Debug("[GET BATCH] some products not found", zap.Int("missing", missing))
	}
	return found, nil
}

func (uc *CatalogUseCase) ListProducts(ctx context.Context) ([]Product, error) {
	return uc.repository.ListProducts(ctx)
}

// UpsertProduct creates or replaces a product and announces the change.
func (uc *CatalogUseCase) UpsertProduct(ctx context.Context, product *Product) (*Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repository.UpsertProduct(ctx, product); err != nil {
		uc.logger.Error("[UPSERT PRODUCT] failed", zap.String("product_id", product.ID), zap.Error(err))
		return nil, err
	}

	uc.publish(ctx, ProductChangedEvent{
		Type:       ProductUpserted,
		ProductID:  product.ID,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	})

	uc.logger.Info("[UPSERT PRODUCT] success", zap.String("product_id", product.ID))
	return product, nil
}

// DeleteProduct removes a product. Orders keep referencing the id; the
// orders service treats it as unresolved from then on.
func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, productID string) error {
	if err := uc.repository.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	uc.publish(ctx, ProductChangedEvent{
		Type:       ProductDeleted,
		ProductID:  productID,
		OccurredAt: time.Now().UTC(),
	})

	uc.logger.Info("[DELETE PRODUCT] success", zap.String("product_id", productID))
	return nil
}

// publish is best effort: the catalog write already committed.
func (uc *CatalogUseCase) publish(ctx context.Context, event ProductChangedEvent) {
	if err := uc.publisher.PublishProductChanged(ctx, event); err != nil {
		uc.logger.Warn("failed to publish product event",
			zap.String("type", event.Type),
			zap.String("product_id", event.ProductID),
			zap.Error(err),
		)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
