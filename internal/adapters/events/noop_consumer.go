package events

import (
	"context"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
)

// NoopConsumer stands in when no broker is configured.
type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer { return &NoopConsumer{} }

func (c *NoopConsumer) Poll(_ context.Context, _ int) ([]ports.InboundEvent, error) {
	return nil, nil
}

func (c *NoopConsumer) Close() error { return nil }
