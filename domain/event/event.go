package event

import (
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventName() string
}

// MessageAccepted is emitted once a submission has been verified, moderated
// and durably persisted. It is the only event connection sinks ever receive.
type MessageAccepted struct {
	ID        uuid.UUID
	SubjectID string
	Content   string
	At        time.Time
}

func (m MessageAccepted) EventName() string {
	return "message.accepted"
}
