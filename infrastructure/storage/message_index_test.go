package storage

import (
	"context"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain/chat"
)

func openTestIndex(t *testing.T) *MessageIndex {
	t.Helper()
	index, err := NewMessageIndex(bluge.InMemoryOnlyConfig(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func TestMessageIndex_IndexAndSearch(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	records := []chat.Record{
		{ID: uuid.New(), SubjectID: "uidA", Content: "the badger ships tonight", At: time.Now().UTC()},
		{ID: uuid.New(), SubjectID: "uidB", Content: "lunch at noon", At: time.Now().UTC()},
	}
	for _, record := range records {
		req.NoError(index.Index(record))
	}

	hits, err := index.Search(context.Background(), "badger", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(records[0].ID.String(), hits[0].MessageID)
	req.Equal("uidA", hits[0].SubjectID)
	req.Equal("the badger ships tonight", hits[0].Content)
}

func TestMessageIndex_Search_NoMatch(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.Index(chat.Record{
		ID: uuid.New(), SubjectID: "uidA", Content: "hello world", At: time.Now().UTC(),
	}))

	hits, err := index.Search(context.Background(), "absent", 10)
	req.NoError(err)
	req.Empty(hits)
}
