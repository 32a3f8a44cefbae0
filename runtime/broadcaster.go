package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"

	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/moderation"
)

// MessageIndexer feeds accepted records into the search index.
// Indexing is best effort and never gates the broadcast path.
type MessageIndexer interface {
	Index(record chat.Record) error
}

// Broadcaster turns an authenticated submission into a durable record and
// fans it out to every registered connection.
//
// Ordering is strict: moderation, then persistence, then delivery. A record
// that failed to persist is never offered to anyone; a recipient that fails
// to take delivery never affects the sender or the remaining recipients.
type Broadcaster struct {
	log         *slog.Logger
	registry    contract.IRegistry
	repository  contract.IMessageRepository
	moderator   moderation.Moderator
	indexer     MessageIndexer
	sinkTimeout time.Duration
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry,
	repository contract.IMessageRepository, moderator moderation.Moderator,
	indexer MessageIndexer, sinkTimeout time.Duration) *Broadcaster {
	return &Broadcaster{
		log:         log,
		registry:    registry,
		repository:  repository,
		moderator:   moderator,
		indexer:     indexer,
		sinkTimeout: sinkTimeout,
	}
}

func (b *Broadcaster) Publish(ctx context.Context, cmd chat.PostMessageCommand) error {
	content, foundWords := b.moderator.Censor(cmd.Content)
	if len(foundWords) > 0 {
		info := whatlanggo.Detect(cmd.Content)
		b.log.Warn("Censored message content",
			"subject_id", cmd.SubjectID,
			"words", len(foundWords),
			"lang", info.Lang.Iso6391())
	}

	record, err := b.repository.Append(cmd.SubjectID, content, cmd.CreatedAt)
	if err != nil {
		// Reported to the sender only; nothing was broadcast.
		return err
	}

	if b.indexer != nil {
		if err := b.indexer.Index(record); err != nil {
			b.log.Warn("Search indexing failed", "message_id", record.ID, "error", err)
		}
	}

	evt := event.MessageAccepted{
		ID:        record.ID,
		SubjectID: record.SubjectID,
		Content:   record.Content,
		At:        record.At,
	}

	// The snapshot is taken after persistence: every connection present now
	// is offered the record, connections added later may miss it.
	for _, recipient := range b.registry.Snapshot() {
		deliveryCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
		if err := recipient.Consume(deliveryCtx, evt); err != nil {
			b.log.Warn("Delivery failed, recipient skipped",
				"message_id", record.ID,
				"error", err)
		}
		cancel()
	}
	return nil
}
