package service

import (
	"log"

	"github.com/halcyonchat/halcyon-backend/internal/apperr"
	"github.com/halcyonchat/halcyon-backend/internal/cache"
	"github.com/halcyonchat/halcyon-backend/internal/channel"
	"github.com/halcyonchat/halcyon-backend/internal/events"
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"github.com/halcyonchat/halcyon-backend/internal/presence"
	"github.com/halcyonchat/halcyon-backend/internal/repository"
)

// GroupService applies membership changes to persistence and keeps the live
// broadcast scope in step: additions join live sessions, revocations evict
// them immediately rather than waiting for the next join to be skipped.
type GroupService struct {
	registry   *presence.Registry
	channels   *channel.Manager
	groups     repository.GroupRepositoryInterface
	messages   repository.MessageRepositoryInterface
	groupCache *cache.GroupCache
	pusher     Pusher
}

func NewGroupService(
	registry *presence.Registry,
	channels *channel.Manager,
	groups repository.GroupRepositoryInterface,
	messages repository.MessageRepositoryInterface,
	groupCache *cache.GroupCache,
	pusher Pusher,
) *GroupService {
	return &GroupService{
		registry:   registry,
		channels:   channels,
		groups:     groups,
		messages:   messages,
		groupCache: groupCache,
		pusher:     pusher,
	}
}

// AddMember records the membership, joins the user's live sessions to the
// channel, and announces the addition to everyone now joined.
func (s *GroupService) AddMember(groupID, userID, byUserID uint) error {
	if _, err := s.groups.FindByID(groupID); err != nil {
		return apperr.NotFound("group not found")
	}
	if err := s.groups.AddMember(groupID, userID, models.RoleMember); err != nil {
		return apperr.PersistenceFailed("add group member", err)
	}
	s.groupCache.InvalidateGroup(groupID)
	s.groupCache.InvalidateUser(userID)

	for _, connID := range s.registry.ConnectionsOf(userID) {
		s.channels.Join(groupID, userID, connID)
	}

	ev := events.UserAddedToGroup{GroupID: groupID, UserID: userID, ByID: byUserID}
	for _, connID := range s.channels.BroadcastTargets(groupID) {
		if err := s.pusher.PushUserAddedToGroup(connID, ev); err != nil {
			log.Printf("group-add push to %s failed: %v", connID, err)
		}
	}
	return nil
}

// RemoveMember revokes the membership and evicts every live connection of
// the user from the channel before announcing the removal.
func (s *GroupService) RemoveMember(groupID, userID, byUserID uint) error {
	if err := s.groups.RemoveMember(groupID, userID); err != nil {
		return apperr.PersistenceFailed("remove group member", err)
	}
	s.groupCache.InvalidateGroup(groupID)
	s.groupCache.InvalidateUser(userID)

	evicted := s.channels.EvictUser(groupID, userID)

	ev := events.UserRemovedFromGroup{GroupID: groupID, UserID: userID, ByID: byUserID}
	for _, connID := range s.channels.BroadcastTargets(groupID) {
		if err := s.pusher.PushUserRemovedFromGroup(connID, ev); err != nil {
			log.Printf("group-remove push to %s failed: %v", connID, err)
		}
	}
	// The removed user's own sessions learn about it too.
	for _, connID := range evicted {
		if err := s.pusher.PushUserRemovedFromGroup(connID, ev); err != nil {
			log.Printf("group-remove push to %s failed: %v", connID, err)
		}
	}
	return nil
}

func (s *GroupService) ChangeRole(groupID, userID uint, role models.GroupRole) error {
	isMember, err := s.groups.IsMember(groupID, userID)
	if err != nil || !isMember {
		return apperr.NotFound("group member not found")
	}
	if err := s.groups.SetRole(groupID, userID, role); err != nil {
		return apperr.PersistenceFailed("set group role", err)
	}

	ev := events.UserRoleChanged{GroupID: groupID, UserID: userID, Role: role}
	for _, connID := range s.channels.BroadcastTargets(groupID) {
		if err := s.pusher.PushUserRoleChanged(connID, ev); err != nil {
			log.Printf("role-change push to %s failed: %v", connID, err)
		}
	}
	return nil
}

// DeleteGroup removes the group and tears down its broadcast scope,
// notifying every connection that was joined.
func (s *GroupService) DeleteGroup(groupID uint) error {
	if _, err := s.groups.FindByID(groupID); err != nil {
		return apperr.NotFound("group not found")
	}
	if err := s.groups.Delete(groupID); err != nil {
		return apperr.PersistenceFailed("delete group", err)
	}
	s.groupCache.InvalidateGroup(groupID)

	ev := events.GroupDeleted{GroupID: groupID}
	for _, connID := range s.channels.DropChannel(groupID) {
		if err := s.pusher.PushGroupDeleted(connID, ev); err != nil {
			log.Printf("group-delete push to %s failed: %v", connID, err)
		}
	}
	return nil
}

// MarkConversationRead persists the read mark for a direct conversation and
// sends a read receipt to the peer's live sessions.
func (s *GroupService) MarkConversationRead(userID, peerID uint) error {
	count, err := s.messages.MarkConversationRead(userID, peerID)
	if err != nil {
		return apperr.PersistenceFailed("mark conversation read", err)
	}
	if count == 0 {
		return nil
	}
	ev := events.MessageRead{ReaderID: userID, PeerID: peerID, Count: count}
	for _, connID := range s.registry.ConnectionsOf(peerID) {
		if err := s.pusher.PushMessageRead(connID, ev); err != nil {
			log.Printf("read-receipt push to %s failed: %v", connID, err)
		}
	}
	return nil
}

// MarkGroupRead advances the member's read mark and broadcasts the receipt
// to the channel.
func (s *GroupService) MarkGroupRead(groupID, userID uint, lastReadMessageID uint) error {
	if err := s.groups.UpsertReadState(groupID, userID, lastReadMessageID); err != nil {
		return apperr.PersistenceFailed("mark group read", err)
	}
	ev := events.MessageRead{ReaderID: userID, GroupID: &groupID}
	for _, connID := range s.channels.BroadcastTargets(groupID) {
		if err := s.pusher.PushMessageRead(connID, ev); err != nil {
			log.Printf("group read-receipt push to %s failed: %v", connID, err)
		}
	}
	return nil
}
