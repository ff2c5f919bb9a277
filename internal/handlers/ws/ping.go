package ws

// MessagePing is a keepalive ping from a client.
type MessagePing struct {
}

func (msg *MessagePing) GetType() string {
	return "ping"
}

func (msg *MessagePing) Process(ctx *MessageContext) error {
	return ctx.Hub.WriteTo(ctx.ConnID, map[string]string{
		"type": "pong",
	})
}

// MessagePong is a pong response (in case client wants to track latency).
type MessagePong struct {
}

func (msg *MessagePong) GetType() string {
	return "pong"
}

func (msg *MessagePong) Process(ctx *MessageContext) error {
	return nil
}
