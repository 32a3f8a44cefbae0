package ws

// Inbound frames are JSON text messages. A frame carrying "ping" is a
// keepalive, a frame carrying both "token" and "message" is a chat
// submission, anything else is malformed.
type inboundFrame struct {
	Ping    *string `json:"ping"`
	Token   *string `json:"token"`
	Message *string `json:"message"`
}

const keepAliveValue = "keep-alive"

type pongFrame struct {
	Pong string `json:"pong"`
}

type errorFrame struct {
	Error string `json:"error"`
}

type recordFrame struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
