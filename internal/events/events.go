// Package events defines the push event kinds a connected client can
// receive. Reaction, mention, and read-receipt events carry identifiers
// only; clients fetch detail from persistence.
package events

import "github.com/halcyonchat/halcyon-backend/internal/models"

const (
	KindMessageReceived      = "message_received"
	KindGroupMessageReceived = "group_message_received"
	KindMessageRead          = "message_read"
	KindUserOnline           = "user_online"
	KindUserOffline          = "user_offline"
	KindUserAddedToGroup     = "user_added_to_group"
	KindUserRemovedFromGroup = "user_removed_from_group"
	KindUserRoleChanged      = "user_role_changed"
	KindGroupDeleted         = "group_deleted"
	KindReactionAdded        = "reaction_added"
	KindReactionRemoved      = "reaction_removed"
	KindMentionReceived      = "mention_received"
	KindMentionRead          = "mention_read"
	KindUnreadMessages       = "unread_messages_pending"
	KindUnreadGroupMessages  = "unread_group_messages_pending"
)

type MessageReceived struct {
	Message models.MessageResponse `json:"message"`
	// Echo marks pushes to the sender's own other sessions.
	Echo bool `json:"echo,omitempty"`
}

type GroupMessageReceived struct {
	Message models.MessageResponse `json:"message"`
	GroupID uint                   `json:"group_id"`
	Echo    bool                   `json:"echo,omitempty"`
}

type MessageRead struct {
	ReaderID uint  `json:"reader_id"`
	PeerID   uint  `json:"peer_id"`
	GroupID  *uint `json:"group_id,omitempty"`
	Count    int64 `json:"count"`
}

type UserOnline struct {
	UserID uint `json:"user_id"`
}

type UserOffline struct {
	UserID uint `json:"user_id"`
}

type UserAddedToGroup struct {
	GroupID uint `json:"group_id"`
	UserID  uint `json:"user_id"`
	ByID    uint `json:"by_id"`
}

type UserRemovedFromGroup struct {
	GroupID uint `json:"group_id"`
	UserID  uint `json:"user_id"`
	ByID    uint `json:"by_id"`
}

type UserRoleChanged struct {
	GroupID uint             `json:"group_id"`
	UserID  uint             `json:"user_id"`
	Role    models.GroupRole `json:"role"`
}

type GroupDeleted struct {
	GroupID uint `json:"group_id"`
}

type ReactionAdded struct {
	MessageID uint   `json:"message_id"`
	UserID    uint   `json:"user_id"`
	Type      string `json:"type"`
}

type ReactionRemoved struct {
	MessageID uint   `json:"message_id"`
	UserID    uint   `json:"user_id"`
	Type      string `json:"type"`
}

type MentionReceived struct {
	MentionID uint  `json:"mention_id"`
	MessageID uint  `json:"message_id"`
	ByUserID  uint  `json:"by_user_id"`
	GroupID   *uint `json:"group_id,omitempty"`
}

type MentionRead struct {
	MentionID uint `json:"mention_id"`
	ReaderID  uint `json:"reader_id"`
}

type UnreadMessages struct {
	PeerID uint  `json:"peer_id"`
	Count  int64 `json:"count"`
}

type UnreadGroupMessages struct {
	GroupID uint  `json:"group_id"`
	Count   int64 `json:"count"`
}
