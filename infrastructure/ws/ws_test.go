package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-relay/auth"
	"chat-relay/domain/chat"
	"chat-relay/infrastructure/storage"
	"chat-relay/moderation"
	"chat-relay/runtime"
)

func newTestRelay(t *testing.T) (*httptest.Server, *auth.TokenService) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)

	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repository := storage.NewMessageRepository(db, log, nil)
	moderator, err := moderation.NewModerator(nil, '*', log)
	require.NoError(t, err)

	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, repository, moderator, nil, time.Second)
	tokens := auth.NewTokenService([]byte("test-secret"), "chat-relay-test", time.Hour)

	server := NewServer(log, registry, broadcaster, tokens, 16, 1<<20, nil)
	ts := httptest.NewServer(http.HandlerFunc(server.Handle))
	t.Cleanup(ts.Close)
	return ts, tokens
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

// expectSilence asserts that nothing arrives on the connection. The read
// deadline poisons the connection, so only call this last.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

// waitReady confirms the connection's pumps are running (and therefore that
// the connection is registered) via a keepalive round trip.
func waitReady(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	sendJSON(t, conn, `{"ping":"keep-alive"}`)
	frame := readFrame(t, conn)
	require.Equal(t, "keep-alive", frame["pong"])
}

func TestKeepAlive_PongGoesToSenderOnly(t *testing.T) {
	req := require.New(t)
	ts, _ := newTestRelay(t)

	alice := dial(t, ts)
	bob := dial(t, ts)
	waitReady(t, alice)
	waitReady(t, bob)

	sendJSON(t, alice, `{"ping":"keep-alive"}`)
	frame := readFrame(t, alice)
	req.Equal("keep-alive", frame["pong"])

	expectSilence(t, bob)
}

func TestChatSubmission_BroadcastToEveryConnection(t *testing.T) {
	req := require.New(t)
	ts, tokens := newTestRelay(t)

	token, err := tokens.Issue("alice", []string{"user"})
	req.NoError(err)

	alice := dial(t, ts)
	bob := dial(t, ts)
	waitReady(t, alice)
	waitReady(t, bob)

	payload, err := json.Marshal(map[string]string{"token": token, "message": "hello room"})
	req.NoError(err)
	sendJSON(t, alice, string(payload))

	// The sender is a recipient like any other
	for _, conn := range []*websocket.Conn{alice, bob} {
		frame := readFrame(t, conn)
		req.Equal("alice", frame["user_id"])
		req.Equal("hello room", frame["message"])

		timestamp, ok := frame["timestamp"].(string)
		req.True(ok)
		_, err := time.Parse(chat.TimestampLayout, timestamp)
		req.NoError(err)
	}
}

func TestChatSubmission_InvalidTokenRejectedToSenderOnly(t *testing.T) {
	req := require.New(t)
	ts, _ := newTestRelay(t)

	alice := dial(t, ts)
	bob := dial(t, ts)
	waitReady(t, alice)
	waitReady(t, bob)

	sendJSON(t, alice, `{"token":"garbage","message":"should not pass"}`)
	frame := readFrame(t, alice)
	req.Equal("invalid credential", frame["error"])

	expectSilence(t, bob)
}

func TestMalformedFrame_ConnectionStaysUsable(t *testing.T) {
	req := require.New(t)
	ts, tokens := newTestRelay(t)

	alice := dial(t, ts)
	waitReady(t, alice)

	// Not JSON at all
	sendJSON(t, alice, `{not json`)
	frame := readFrame(t, alice)
	req.Equal("malformed frame", frame["error"])

	// Valid JSON, unknown shape
	sendJSON(t, alice, `{"foo":"bar"}`)
	frame = readFrame(t, alice)
	req.Equal("malformed frame", frame["error"])

	// The connection survived both rejections
	waitReady(t, alice)

	token, err := tokens.Issue("alice", []string{"user"})
	req.NoError(err)
	payload, err := json.Marshal(map[string]string{"token": token, "message": "still alive"})
	req.NoError(err)
	sendJSON(t, alice, string(payload))

	frame = readFrame(t, alice)
	req.Equal("still alive", frame["message"])
}

func TestChatSubmission_EmptyMessageRejected(t *testing.T) {
	req := require.New(t)
	ts, tokens := newTestRelay(t)

	alice := dial(t, ts)
	waitReady(t, alice)

	token, err := tokens.Issue("alice", []string{"user"})
	req.NoError(err)
	payload, err := json.Marshal(map[string]string{"token": token, "message": ""})
	req.NoError(err)
	sendJSON(t, alice, string(payload))

	frame := readFrame(t, alice)
	req.Equal("empty message", frame["error"])
}

func TestPeerDisconnect_DoesNotAffectOthers(t *testing.T) {
	req := require.New(t)
	ts, tokens := newTestRelay(t)

	alice := dial(t, ts)
	bob := dial(t, ts)
	waitReady(t, alice)
	waitReady(t, bob)

	req.NoError(bob.Close())

	// Alice keeps working while the relay tears bob down
	waitReady(t, alice)

	token, err := tokens.Issue("alice", []string{"user"})
	req.NoError(err)
	payload, err := json.Marshal(map[string]string{"token": token, "message": "anyone there?"})
	req.NoError(err)
	sendJSON(t, alice, string(payload))

	frame := readFrame(t, alice)
	req.Equal("anyone there?", frame["message"])
}
