package ws

// Application-level keepalive, for peers that cannot send ping frames.
const (
	MsgPing = "ping"
	MsgPong = "pong"
)
