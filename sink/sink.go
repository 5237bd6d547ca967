package sink

import (
	"context"

	"talkline/domain/event"
)

// Buffered is the per-connection delivery buffer.
// The router writes into it; the connection's write loop drains it.
type Buffered struct {
	Events chan event.DomainEvent
}

func NewBuffered(bufferSize int) *Buffered {
	return &Buffered{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume redirects the event through the owner of the channel.
// The transport write loop will take it from now.
// A full buffer drops the event rather than blocking the router.
func (s *Buffered) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
