package service

import (
	"log"

	"github.com/halcyonchat/halcyon-backend/internal/apperr"
	"github.com/halcyonchat/halcyon-backend/internal/channel"
	"github.com/halcyonchat/halcyon-backend/internal/events"
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"github.com/halcyonchat/halcyon-backend/internal/presence"
	"github.com/halcyonchat/halcyon-backend/internal/repository"
)

// Dispatcher runs a send operation end-to-end: persist, scope, deliver,
// then the mention sub-flow. No lock is held across any repository call.
type Dispatcher struct {
	registry *presence.Registry
	channels *channel.Manager
	messages repository.MessageRepositoryInterface
	mentions *MentionService
	pusher   Pusher
}

func NewDispatcher(
	registry *presence.Registry,
	channels *channel.Manager,
	messages repository.MessageRepositoryInterface,
	mentions *MentionService,
	pusher Pusher,
) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		channels: channels,
		messages: messages,
		mentions: mentions,
		pusher:   pusher,
	}
}

// DispatchResult describes which recipients were notified online and which
// were left for retrieval from persistence. Ephemeral, never stored.
type DispatchResult struct {
	Message      *models.Message
	PushedConns  []string
	OfflineUsers []uint
	FailedConns  []string
}

// resolveSender checks that the operation comes from a live session of the
// claimed user. Everything the engine does starts here.
func (d *Dispatcher) resolveSender(senderID uint, senderConnID string) error {
	for _, connID := range d.registry.ConnectionsOf(senderID) {
		if connID == senderConnID {
			return nil
		}
	}
	return apperr.Unauthenticated("no live session for sender")
}

// SendDirect persists a direct message and pushes it to every live session
// of the recipient, plus an echo to each of the sender's sessions. The
// originating session additionally receives the result as its
// acknowledgement.
func (d *Dispatcher) SendDirect(senderConnID string, senderID, recipientID uint, content, clientID string) (*DispatchResult, error) {
	if err := d.resolveSender(senderID, senderConnID); err != nil {
		return nil, err
	}

	message := &models.Message{
		ClientID:    clientID,
		SenderID:    senderID,
		RecipientID: &recipientID,
		Content:     content,
	}
	if err := d.messages.PersistDirect(message); err != nil {
		return nil, apperr.PersistenceFailed("persist direct message", err)
	}

	result := &DispatchResult{Message: message}

	recipientConns := d.registry.ConnectionsOf(recipientID)
	if len(recipientConns) == 0 {
		result.OfflineUsers = append(result.OfflineUsers, recipientID)
	}
	for _, connID := range recipientConns {
		ev := events.MessageReceived{Message: message.ToResponse()}
		d.push(result, connID, d.pusher.PushMessageReceived(connID, ev))
	}

	// Echo so every live session of the sender reflects the send. The
	// originating session gets it too; clients collapse it against the
	// ack by client_id.
	for _, connID := range d.registry.ConnectionsOf(senderID) {
		ev := events.MessageReceived{Message: message.ToResponse(), Echo: true}
		d.push(result, connID, d.pusher.PushMessageReceived(connID, ev))
	}

	d.runMentions(message, MentionScope{
		Kind:        models.ScopeDirect,
		SenderID:    senderID,
		RecipientID: recipientID,
	})

	return result, d.partialErr(result)
}

// SendGroup persists a group message and fans it out to every connection
// currently joined to the channel. The sender's own sessions see it with
// the echo flag set.
func (d *Dispatcher) SendGroup(senderConnID string, senderID, channelID uint, content, clientID string) (*DispatchResult, error) {
	if err := d.resolveSender(senderID, senderConnID); err != nil {
		return nil, err
	}
	if !d.senderJoined(senderConnID, channelID) {
		return nil, apperr.NotFound("sender is not joined to that channel")
	}

	message := &models.Message{
		ClientID: clientID,
		SenderID: senderID,
		GroupID:  &channelID,
		Content:  content,
	}
	if err := d.messages.PersistGroup(message); err != nil {
		return nil, apperr.PersistenceFailed("persist group message", err)
	}

	result := &DispatchResult{Message: message}

	senderConns := make(map[string]struct{})
	for _, connID := range d.registry.ConnectionsOf(senderID) {
		senderConns[connID] = struct{}{}
	}

	for _, connID := range d.channels.BroadcastTargets(channelID) {
		_, echo := senderConns[connID]
		ev := events.GroupMessageReceived{
			Message: message.ToResponse(),
			GroupID: channelID,
			Echo:    echo,
		}
		d.push(result, connID, d.pusher.PushGroupMessageReceived(connID, ev))
	}

	d.runMentions(message, MentionScope{
		Kind:     models.ScopeGroup,
		SenderID: senderID,
		GroupID:  channelID,
	})

	return result, d.partialErr(result)
}

func (d *Dispatcher) senderJoined(connID string, channelID uint) bool {
	for _, id := range d.channels.ChannelsOfConn(connID) {
		if id == channelID {
			return true
		}
	}
	return false
}

func (d *Dispatcher) push(result *DispatchResult, connID string, err error) {
	if err != nil {
		log.Printf("push to %s failed: %v", connID, err)
		result.FailedConns = append(result.FailedConns, connID)
		return
	}
	result.PushedConns = append(result.PushedConns, connID)
}

// partialErr reports push failures as a typed error without invalidating
// the already-persisted send.
func (d *Dispatcher) partialErr(result *DispatchResult) error {
	if len(result.FailedConns) == 0 {
		return nil
	}
	return &apperr.PartialDeliveryError{FailedConns: result.FailedConns}
}

// runMentions is best effort past the persistence point; its failures are
// logged and never surface to the sender.
func (d *Dispatcher) runMentions(message *models.Message, scope MentionScope) {
	if d.mentions == nil {
		return
	}
	if err := d.mentions.ProcessMessage(message, scope); err != nil {
		log.Printf("mention processing for message %d failed: %v", message.ID, err)
	}
}
