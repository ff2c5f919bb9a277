package service

import "github.com/halcyonchat/halcyon-backend/internal/events"

// Pusher is the capability the engine uses to reach a connected client.
// One method per event kind; the concrete transport lives behind it.
// A returned error means this one push failed; it never aborts the
// operation that requested it.
type Pusher interface {
	PushMessageReceived(connID string, ev events.MessageReceived) error
	PushGroupMessageReceived(connID string, ev events.GroupMessageReceived) error
	PushMessageRead(connID string, ev events.MessageRead) error
	PushUserOnline(connID string, ev events.UserOnline) error
	PushUserOffline(connID string, ev events.UserOffline) error
	PushUserAddedToGroup(connID string, ev events.UserAddedToGroup) error
	PushUserRemovedFromGroup(connID string, ev events.UserRemovedFromGroup) error
	PushUserRoleChanged(connID string, ev events.UserRoleChanged) error
	PushGroupDeleted(connID string, ev events.GroupDeleted) error
	PushReactionAdded(connID string, ev events.ReactionAdded) error
	PushReactionRemoved(connID string, ev events.ReactionRemoved) error
	PushMentionReceived(connID string, ev events.MentionReceived) error
	PushMentionRead(connID string, ev events.MentionRead) error
	PushUnreadMessages(connID string, ev events.UnreadMessages) error
	PushUnreadGroupMessages(connID string, ev events.UnreadGroupMessages) error
}
