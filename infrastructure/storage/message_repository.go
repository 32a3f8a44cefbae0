package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain/chat"
	"chat-relay/errors"
)

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int

	mu     sync.Mutex
	lastAt time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the stored form of a record. The field names match the
// broadcast wire shape so the viewer and debug tooling can read values
// without a separate schema.
type diskMessage struct {
	ID        uuid.UUID `json:"id"`
	SubjectID string    `json:"user_id"`
	Content   string    `json:"message"`
	At        int64     `json:"at"`
}

// Append persists a message in BadgerDB and assigns the server timestamp.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// Timestamps are monotonic per append call: a clock step backwards never
// produces a record older than its predecessor.
func (m *MessageRepository) Append(subjectID, content string, requestedAt time.Time) (chat.Record, error) {
	at := m.nextTimestamp(requestedAt)
	record := chat.Record{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Content:   content,
		At:        at,
	}

	key := fmt.Sprintf("msg:%019d:%s", at.UnixNano(), record.ID)
	bytes, err := json.Marshal(fromRecord(record))
	if err != nil {
		return chat.Record{}, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return chat.Record{}, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}
	return record, nil
}

// nextTimestamp serializes timestamp assignment so that appends never share
// or reorder an instant, even under a stalled or stepped wall clock.
func (m *MessageRepository) nextTimestamp(requestedAt time.Time) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := requestedAt.UTC()
	if !at.After(m.lastAt) {
		at = m.lastAt.Add(time.Nanosecond)
	}
	m.lastAt = at
	return at
}

// GetMessages retrieves stored messages using a reverse prefix scan, newest
// first. Thanks to the padded timestamp in the key, messages are naturally
// sorted by time. It stops collecting once the configured limitMessages is
// reached and returns a cursor for the next page.
func (m *MessageRepository) GetMessages(cursor *string) ([]chat.Record, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := "msg:"
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	records := make([]chat.Record, 0, len(byteMessages))
	for _, b := range byteMessages {
		var disk diskMessage
		if err = json.Unmarshal(b, &disk); err != nil {
			return nil, nil, err
		}
		records = append(records, toRecord(disk))
	}
	return records, lo.ToPtr(lastKey), nil
}

func fromRecord(record chat.Record) diskMessage {
	return diskMessage{
		ID:        record.ID,
		SubjectID: record.SubjectID,
		Content:   record.Content,
		At:        record.At.UnixNano(),
	}
}

func toRecord(disk diskMessage) chat.Record {
	return chat.Record{
		ID:        disk.ID,
		SubjectID: disk.SubjectID,
		Content:   disk.Content,
		At:        time.Unix(0, disk.At).UTC(),
	}
}
