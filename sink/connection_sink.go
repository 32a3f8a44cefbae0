package sink

import (
	"context"
	"fmt"
	"log/slog"

	"chat-relay/domain/event"
	"chat-relay/errors"
)

// ConnectionSink bridges the broadcaster fan-out and one connection's write
// pump through a buffered channel.
type ConnectionSink struct {
	log    *slog.Logger
	Events chan event.DomainEvent
}

func NewConnectionSink(log *slog.Logger, bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		log:    log,
		Events: make(chan event.DomainEvent, bufferSize),
	}
}

// Consume is called by the broadcaster for each snapshotted connection.
// It hands the event to the connection's write pump and never blocks on a
// slow recipient: a full buffer drops this delivery and reports it, leaving
// the remaining recipients unaffected.
func (s *ConnectionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %d pending events", errors.ErrSlowConsumer, len(s.Events))
	}
}
