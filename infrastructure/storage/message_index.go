package storage

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"

	"chat-relay/domain/chat"
)

// MessageIndex maintains a full-text index over accepted messages.
// Indexing is best effort: a failed index write never blocks or fails the
// persistence-then-broadcast path, it only degrades search results.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// SearchHit is a single search result projected from stored index fields.
type SearchHit struct {
	MessageID string `json:"id"`
	SubjectID string `json:"user_id"`
	Content   string `json:"message"`
}

func NewMessageIndex(config bluge.Config, log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, err
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

func (i *MessageIndex) Index(record chat.Record) error {
	doc := bluge.NewDocument(record.ID.String()).
		AddField(bluge.NewTextField("content", record.Content).StoreValue()).
		AddField(bluge.NewKeywordField("subject", record.SubjectID).StoreValue()).
		AddField(bluge.NewDateTimeField("at", record.At))

	return i.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message content and returns up to limit hits,
// best scoring first.
func (i *MessageIndex) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	matchQuery := bluge.NewMatchQuery(query).SetField("content")
	request := bluge.NewTopNSearch(limit, matchQuery)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "subject":
				hit.SubjectID = string(value)
			case "content":
				hit.Content = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}
