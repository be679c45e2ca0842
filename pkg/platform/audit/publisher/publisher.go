// Package publisher provides audit event sinks: an in-process channel
// publisher feeding the worker, and a Kafka publisher for deployments with a
// broker.
package publisher

import (
	"context"

	audit "adresolver/pkg/platform/audit"
)

// Publisher emits audit events. Emit must not block the resolution path;
// implementations drop or buffer under pressure rather than stall callers.
type Publisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Channel publishes events onto a buffered channel consumed by the audit
// worker. Events are dropped when the buffer is full.
type Channel struct {
	outbox chan<- audit.Event
}

func NewChannel(outbox chan<- audit.Event) *Channel {
	return &Channel{outbox: outbox}
}

func (c *Channel) Emit(ctx context.Context, event audit.Event) error {
	select {
	case c.outbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Full buffer: drop rather than stall a resolution.
		return nil
	}
}
