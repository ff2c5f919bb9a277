package ws

import (
	"errors"
	"fmt"

	"github.com/halcyonchat/halcyon-backend/internal/apperr"
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"github.com/halcyonchat/halcyon-backend/internal/service"
	"github.com/halcyonchat/halcyon-backend/internal/validation"
)

// MessageChat is a direct-message send from a client session.
type MessageChat struct {
	ClientID    string `json:"client_id"`
	RecipientID uint   `json:"recipient_id"`
	Content     string `json:"content"`
}

func (msg *MessageChat) GetType() string {
	return "chat"
}

func (msg *MessageChat) Process(ctx *MessageContext) error {
	if !validation.ValidateMessageContent(msg.Content) {
		return fmt.Errorf("invalid message content")
	}
	result, err := ctx.Dispatcher.SendDirect(ctx.ConnID, ctx.UserID, msg.RecipientID, msg.Content, msg.ClientID)
	return writeAck(ctx, result, err)
}

// MessageGroupChat is a group-channel send from a client session.
type MessageGroupChat struct {
	ClientID string `json:"client_id"`
	GroupID  uint   `json:"group_id"`
	Content  string `json:"content"`
}

func (msg *MessageGroupChat) GetType() string {
	return "group_chat"
}

func (msg *MessageGroupChat) Process(ctx *MessageContext) error {
	if !validation.ValidateMessageContent(msg.Content) {
		return fmt.Errorf("invalid message content")
	}
	result, err := ctx.Dispatcher.SendGroup(ctx.ConnID, ctx.UserID, msg.GroupID, msg.Content, msg.ClientID)
	return writeAck(ctx, result, err)
}

// Ack is the acknowledgement returned to the originating session.
type Ack struct {
	Type         string                  `json:"type"`
	Message      *models.MessageResponse `json:"message,omitempty"`
	OfflineUsers []uint                  `json:"offline_users,omitempty"`
	FailedPushes int                     `json:"failed_pushes,omitempty"`
}

// writeAck acknowledges a dispatch on the originating connection. A partial
// delivery failure is reported in the ack but the send stays successful; a
// fatal error propagates so the caller relays an error frame.
func writeAck(ctx *MessageContext, result *service.DispatchResult, err error) error {
	var partial *apperr.PartialDeliveryError
	if err != nil && !errors.As(err, &partial) {
		return err
	}

	ack := Ack{Type: "ack"}
	if result != nil {
		resp := result.Message.ToResponse()
		ack.Message = &resp
		ack.OfflineUsers = result.OfflineUsers
		ack.FailedPushes = len(result.FailedConns)
	}
	return ctx.Hub.WriteTo(ctx.ConnID, ack)
}
