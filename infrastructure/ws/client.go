package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/sink"
)

const writeTimeout = 10 * time.Second

// Client couples one WebSocket connection with its event sink. The read pump
// decodes inbound frames and hands submissions to the broadcaster; the write
// pump is the single writer on the connection, merging broadcast events with
// direct replies (pong and error frames go to the sender only).
type Client struct {
	id          string
	conn        *websocket.Conn
	log         *slog.Logger
	verifier    contract.CredentialVerifier
	broadcaster contract.IBroadcaster
	sink        *sink.ConnectionSink
	replies     chan any
}

func NewClient(id string, conn *websocket.Conn, log *slog.Logger,
	verifier contract.CredentialVerifier, broadcaster contract.IBroadcaster,
	snk *sink.ConnectionSink, replyBufferSize int) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		log:         log,
		verifier:    verifier,
		broadcaster: broadcaster,
		sink:        snk,
		replies:     make(chan any, replyBufferSize),
	}
}

// readPump consumes frames until the transport fails. Per-frame errors
// (malformed payload, rejected credential, store failure) are reported to
// the sender and never terminate the connection.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway) {
				c.log.Warn("Connection read failed", "connection_id", c.id, "error", err)
			}
			return
		}
		c.handleFrame(ctx, raw)
	}
}

func (c *Client) handleFrame(ctx context.Context, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.reply(errorFrame{Error: errors.Reason(errors.ErrMalformedFrame)})
		return
	}

	switch {
	case frame.Ping != nil:
		c.reply(pongFrame{Pong: keepAliveValue})
	case frame.Token != nil && frame.Message != nil:
		c.handleSubmission(ctx, *frame.Token, *frame.Message)
	default:
		c.reply(errorFrame{Error: errors.Reason(errors.ErrMalformedFrame)})
	}
}

func (c *Client) handleSubmission(ctx context.Context, token, message string) {
	subjectID, err := c.verifier.Verify(token)
	if err != nil {
		c.reply(errorFrame{Error: errors.Reason(err)})
		return
	}

	if message == "" {
		c.reply(errorFrame{Error: errors.Reason(errors.ErrEmptyMessage)})
		return
	}

	cmd := chat.PostMessageCommand{
		SubjectID: subjectID,
		Content:   message,
		CreatedAt: time.Now(),
	}
	if err := c.broadcaster.Publish(ctx, cmd); err != nil {
		c.reply(errorFrame{Error: errors.Reason(err)})
	}
}

// reply never blocks the read loop: if the write pump cannot keep up the
// frame is dropped and logged.
func (c *Client) reply(frame any) {
	select {
	case c.replies <- frame:
	default:
		c.log.Warn("Reply dropped, write pump backlogged", "connection_id", c.id)
	}
}

// writePump owns all writes on the connection. It exits on the first
// transport failure or when the connection context is cancelled; closing
// the connection unblocks the read pump.
func (c *Client) writePump(ctx context.Context) {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-c.sink.Events:
			frame, ok := outboundFromEvent(e)
			if !ok {
				continue
			}
			if !c.write(frame) {
				return
			}
		case frame := <-c.replies:
			if !c.write(frame) {
				return
			}
		}
	}
}

func outboundFromEvent(e event.DomainEvent) (any, bool) {
	switch evt := e.(type) {
	case event.MessageAccepted:
		return recordFrame{
			UserID:    evt.SubjectID,
			Message:   evt.Content,
			Timestamp: evt.At.Format(chat.TimestampLayout),
		}, true
	default:
		return nil, false
	}
}

func (c *Client) write(frame any) bool {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.log.Error("Failed to encode outbound frame", "connection_id", c.id, "error", err)
		return true
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.log.Warn("Connection write failed", "connection_id", c.id, "error", err)
		return false
	}
	return true
}
