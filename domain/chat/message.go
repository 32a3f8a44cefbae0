package chat

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the wire format used for record timestamps,
// kept identical to what the storage layer persists so that a stored
// record and its broadcast form never diverge.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is the durable, broadcastable unit of the relay.
// SubjectID always comes from a verified credential, never from the client.
// A Record is immutable once created and is not retained in memory after
// broadcast.
type Record struct {
	ID        uuid.UUID
	SubjectID string
	Content   string
	At        time.Time
}

// PostMessageCommand carries an authenticated submission towards the broadcaster.
type PostMessageCommand struct {
	SubjectID string
	Content   string
	CreatedAt time.Time
}
