//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"context"
	"reflect"
	"time"
)

// CredentialVerifier validates an opaque token and returns the stable
// subject identifier it was issued for.
type CredentialVerifier interface {
	Verify(token string) (string, error)
}

// IMessageRepository durably appends accepted messages. The returned record
// carries the server-assigned timestamp, monotonic per append call.
type IMessageRepository interface {
	Append(subjectID, content string, requestedAt time.Time) (chat.Record, error)
	GetMessages(cursor *string) ([]chat.Record, *string, error)
}

// EventSink receives accepted-message events for one recipient.
// Consume must not block on a slow recipient.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks the set of currently live connections.
// Remove is idempotent; Snapshot returns the live set at a point in time.
type IRegistry interface {
	Add(connectionID string, sink EventSink)
	Remove(connectionID string)
	Snapshot() []EventSink
	Len() int
}

// IBroadcaster persists an authenticated submission and fans it out to
// every registered connection. Persistence happens before any delivery.
type IBroadcaster interface {
	Publish(ctx context.Context, cmd chat.PostMessageCommand) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

// Worker doesn't protect itself; the supervisor restarts it after a panic.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
