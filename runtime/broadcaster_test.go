package runtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/moderation"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

func passThroughModerator(t *testing.T) moderation.Moderator {
	t.Helper()
	moderator, err := moderation.NewModerator(nil, '*', testLogger())
	require.NoError(t, err)
	return moderator
}

func TestBroadcaster_PersistsThenDeliversToAllRecipients(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	now := time.Now()
	cmd := chat.PostMessageCommand{SubjectID: "alice", Content: "hello", CreatedAt: now}
	record := chat.Record{SubjectID: "alice", Content: "hello", At: now}

	repository := mocks.NewMockIMessageRepository(ctrl)
	repository.EXPECT().Append("alice", "hello", now).Return(record, nil).Times(1)

	first := mocks.NewMockEventSink(ctrl)
	second := mocks.NewMockEventSink(ctrl)
	expected := event.MessageAccepted{
		ID:        record.ID,
		SubjectID: record.SubjectID,
		Content:   record.Content,
		At:        record.At,
	}
	first.EXPECT().Consume(gomock.Any(), expected).Return(nil).Times(1)
	second.EXPECT().Consume(gomock.Any(), expected).Return(nil).Times(1)

	registry := NewRegistry()
	registry.Add("conn-a", first)
	registry.Add("conn-b", second)

	broadcaster := NewBroadcaster(testLogger(), registry, repository,
		passThroughModerator(t), nil, time.Second)
	req.NoError(broadcaster.Publish(ctx, cmd))
}

func TestBroadcaster_StoreFailureReachesNobody(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	cmd := chat.PostMessageCommand{SubjectID: "alice", Content: "hello", CreatedAt: time.Now()}

	repository := mocks.NewMockIMessageRepository(ctrl)
	repository.EXPECT().
		Append(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(chat.Record{}, errors.ErrStoreFailure)

	// No Consume expectation: a record that failed to persist is never offered.
	recipient := mocks.NewMockEventSink(ctrl)

	registry := NewRegistry()
	registry.Add("conn-a", recipient)

	broadcaster := NewBroadcaster(testLogger(), registry, repository,
		passThroughModerator(t), nil, time.Second)

	err := broadcaster.Publish(context.Background(), cmd)
	req.ErrorIs(err, errors.ErrStoreFailure)
}

func TestBroadcaster_FailingRecipientDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	now := time.Now()
	cmd := chat.PostMessageCommand{SubjectID: "bob", Content: "still here", CreatedAt: now}
	record := chat.Record{SubjectID: "bob", Content: "still here", At: now}

	repository := mocks.NewMockIMessageRepository(ctrl)
	repository.EXPECT().Append("bob", "still here", now).Return(record, nil)

	failing := mocks.NewMockEventSink(ctrl)
	failing.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.ErrSlowConsumer)
	healthy := mocks.NewMockEventSink(ctrl)
	healthy.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	registry := NewRegistry()
	registry.Add("conn-failing", failing)
	registry.Add("conn-healthy", healthy)

	broadcaster := NewBroadcaster(testLogger(), registry, repository,
		passThroughModerator(t), nil, time.Second)

	// A failed delivery is logged and skipped, never surfaced to the sender.
	req.NoError(broadcaster.Publish(context.Background(), cmd))
}

func TestBroadcaster_CensorsBeforePersisting(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', testLogger())
	req.NoError(err)

	now := time.Now()
	cmd := chat.PostMessageCommand{SubjectID: "carol", Content: "what a badger", CreatedAt: now}
	censored := "what a ******"
	record := chat.Record{SubjectID: "carol", Content: censored, At: now}

	// The stored bytes and the broadcast bytes must be the same censored text.
	repository := mocks.NewMockIMessageRepository(ctrl)
	repository.EXPECT().Append("carol", censored, now).Return(record, nil)

	recipient := mocks.NewMockEventSink(ctrl)
	recipient.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			accepted, ok := e.(event.MessageAccepted)
			req.True(ok)
			req.Equal(censored, accepted.Content)
			return nil
		})

	registry := NewRegistry()
	registry.Add("conn-a", recipient)

	broadcaster := NewBroadcaster(testLogger(), registry, repository, moderator, nil, time.Second)
	req.NoError(broadcaster.Publish(context.Background(), cmd))
}
