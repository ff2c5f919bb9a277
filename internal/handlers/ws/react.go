package ws

import (
	"fmt"

	"github.com/halcyonchat/halcyon-backend/internal/validation"
)

// MessageReact adds a reaction to a message.
type MessageReact struct {
	MessageID uint   `json:"message_id"`
	Reaction  string `json:"reaction"`
}

func (msg *MessageReact) GetType() string {
	return "react"
}

func (msg *MessageReact) Process(ctx *MessageContext) error {
	if !validation.ValidateReactionType(msg.Reaction) {
		return fmt.Errorf("invalid reaction type")
	}
	return ctx.Reactions.AddReaction(msg.MessageID, ctx.UserID, msg.Reaction)
}

// MessageUnreact removes a reaction from a message.
type MessageUnreact struct {
	MessageID uint   `json:"message_id"`
	Reaction  string `json:"reaction"`
}

func (msg *MessageUnreact) GetType() string {
	return "unreact"
}

func (msg *MessageUnreact) Process(ctx *MessageContext) error {
	removed, err := ctx.Reactions.RemoveReaction(msg.MessageID, ctx.UserID, msg.Reaction)
	if err != nil {
		return err
	}
	return ctx.Hub.WriteTo(ctx.ConnID, map[string]interface{}{
		"type":       "unreact_ack",
		"message_id": msg.MessageID,
		"removed":    removed,
	})
}
