package ports

import "context"

type InboundEvent struct {
	Topic   string
	Payload []byte
}

// Consumer polls inbound conversation events from the broker.
type Consumer interface {
	Poll(ctx context.Context, max int) ([]InboundEvent, error)
	Close() error
}
