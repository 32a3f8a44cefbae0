package storage

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/mama165/sdk-go/logs"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

func TestMessageRepository_Append(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), nil)

	// When a verified message is appended
	record, err := repo.Append("uidA", "hello", time.Now())

	// Then the stored record carries the verified subject and a server timestamp
	req.NoError(err)
	req.Equal("uidA", record.SubjectID)
	req.Equal("hello", record.Content)
	req.False(record.At.IsZero())
	req.NotEqual(record.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestMessageRepository_Append_MonotonicTimestamps(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), nil)

	// Even when the wall clock is handed the same instant for every call,
	// assigned timestamps must strictly increase.
	now := time.Now()
	var previous time.Time
	for i := 0; i < 10; i++ {
		record, err := repo.Append("uidA", fmt.Sprintf("msg %d", i), now)
		req.NoError(err)
		req.True(record.At.After(previous), "timestamp %v not after %v", record.At, previous)
		previous = record.At
	}
}

func TestMessageRepository_GetMessages_NewestFirst(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), nil)

	for i := 0; i < 5; i++ {
		_, err := repo.Append("uidA", fmt.Sprintf("msg %d", i), time.Now())
		req.NoError(err)
	}

	records, cursor, err := repo.GetMessages(nil)
	req.NoError(err)
	req.NotNil(cursor)
	req.Len(records, 5)

	// Reverse scan: newest append comes out first
	req.Equal("msg 4", records[0].Content)
	req.Equal("msg 0", records[4].Content)
}

func TestMessageRepository_GetMessages_CursorPagination(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), testLogger(), lo.ToPtr(2))

	for i := 0; i < 5; i++ {
		_, err := repo.Append("uidA", fmt.Sprintf("msg %d", i), time.Now())
		req.NoError(err)
	}

	// First page holds the two newest messages
	page1, cursor, err := repo.GetMessages(nil)
	req.NoError(err)
	req.Len(page1, 2)
	req.Equal("msg 4", page1[0].Content)
	req.Equal("msg 3", page1[1].Content)

	// Second page resumes strictly after the cursor
	page2, _, err := repo.GetMessages(cursor)
	req.NoError(err)
	req.Len(page2, 2)
	req.Equal("msg 2", page2[0].Content)
	req.Equal("msg 1", page2[1].Content)
}
