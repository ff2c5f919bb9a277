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

// ReactionService applies add/remove reaction operations and resolves the
// notification scope from the owning message.
type ReactionService struct {
	registry  *presence.Registry
	channels  *channel.Manager
	messages  repository.MessageRepositoryInterface
	reactions repository.ReactionRepositoryInterface
	pusher    Pusher
}

func NewReactionService(
	registry *presence.Registry,
	channels *channel.Manager,
	messages repository.MessageRepositoryInterface,
	reactions repository.ReactionRepositoryInterface,
	pusher Pusher,
) *ReactionService {
	return &ReactionService{
		registry:  registry,
		channels:  channels,
		messages:  messages,
		reactions: reactions,
		pusher:    pusher,
	}
}

// AddReaction is an idempotent upsert: reacting twice with the same type by
// the same user has no additional effect and notifies once.
func (s *ReactionService) AddReaction(messageID, userID uint, reactionType string) error {
	message, err := s.messages.FindByID(messageID)
	if err != nil {
		return apperr.NotFound("message not found")
	}

	reaction := &models.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Type:      reactionType,
		Scope:     message.Scope(),
	}
	created, err := s.reactions.Upsert(reaction)
	if err != nil {
		return apperr.PersistenceFailed("upsert reaction", err)
	}
	if !created {
		return nil // duplicate add, already notified the first time
	}

	ev := events.ReactionAdded{MessageID: messageID, UserID: userID, Type: reactionType}
	for _, connID := range s.notifyTargets(message) {
		if err := s.pusher.PushReactionAdded(connID, ev); err != nil {
			log.Printf("reaction push to %s failed: %v", connID, err)
		}
	}
	return nil
}

// RemoveReaction deletes a matching record. Removing a reaction that does
// not exist is a no-op reported through removed=false, not an error.
func (s *ReactionService) RemoveReaction(messageID, userID uint, reactionType string) (bool, error) {
	message, err := s.messages.FindByID(messageID)
	if err != nil {
		return false, apperr.NotFound("message not found")
	}

	removed, err := s.reactions.Delete(messageID, userID, reactionType)
	if err != nil {
		return false, apperr.PersistenceFailed("delete reaction", err)
	}
	if !removed {
		return false, nil
	}

	ev := events.ReactionRemoved{MessageID: messageID, UserID: userID, Type: reactionType}
	for _, connID := range s.notifyTargets(message) {
		if err := s.pusher.PushReactionRemoved(connID, ev); err != nil {
			log.Printf("reaction push to %s failed: %v", connID, err)
		}
	}
	return true, nil
}

// notifyTargets resolves the owning context of the message: group messages
// broadcast to the channel, direct messages to the two participants.
func (s *ReactionService) notifyTargets(message *models.Message) []string {
	if message.GroupID != nil {
		return s.channels.BroadcastTargets(*message.GroupID)
	}
	targets := s.registry.ConnectionsOf(message.SenderID)
	if message.RecipientID != nil {
		targets = append(targets, s.registry.ConnectionsOf(*message.RecipientID)...)
	}
	return targets
}
