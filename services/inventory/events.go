package main

import (
	"context"

	"github.com/matheusmosca/ecom-enrichment/pkg/kafka"
)

// EventPublisher publishes catalog change notifications.
type EventPublisher interface {
	PublishProductChanged(ctx context.Context, event ProductChangedEvent) error
}

// KafkaEventPublisher writes ProductChangedEvent messages keyed by product id.
type KafkaEventPublisher struct {
	writer kafka.MessageWriter
}

func NewKafkaEventPublisher(writer kafka.MessageWriter) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

func (p *KafkaEventPublisher) PublishProductChanged(ctx context.Context, event ProductChangedEvent) error {
	return kafka.PublishJSON(ctx, p.writer, event.ProductID, event)
}

// noopEventPublisher is used when no brokers are configured.
type noopEventPublisher struct{}

func (noopEventPublisher) PublishProductChanged(context.Context, ProductChangedEvent) error {
	return nil
}
