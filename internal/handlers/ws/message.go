package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/halcyonchat/halcyon-backend/internal/service"
)

// MessageContext provides all dependencies needed for processing one
// inbound client action. Replies go through the Hub so every write on the
// connection holds its write lock; handlers never see the raw socket.
type MessageContext struct {
	ConnID     string
	UserID     uint
	Hub        *Hub
	Dispatcher *service.Dispatcher
	Reactions  *service.ReactionService
	Mentions   *service.MentionService
	Groups     *service.GroupService
}

// Message interface for all inbound WebSocket message types.
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// Envelope is the wire format wrapper for both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorResponse is sent when message processing fails.
type ErrorResponse struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func CreateMessage(msgType string, registry map[string]reflect.Type) (Message, error) {
	rt, ok := registry[msgType]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", msgType)
	}
	return reflect.New(rt).Interface().(Message), nil
}

func Serialize(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msg.GetType(), Payload: payload})
}

func Deserialize(jsonBytes []byte) (Message, error) {
	var wrapper Envelope
	if err := json.Unmarshal(jsonBytes, &wrapper); err != nil {
		return nil, err
	}
	msg, err := CreateMessage(wrapper.Type, typeRegistry)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(wrapper.Payload, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
