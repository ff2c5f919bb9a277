package repository

import "github.com/halcyonchat/halcyon-backend/internal/models"

// UserRepositoryInterface defines the user lookup contract.
type UserRepositoryInterface interface {
	FindByID(id uint) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	UpdateOnlineStatus(userID uint, isOnline bool) error
	FriendsOf(userID uint) ([]uint, error)
}

// MessageRepositoryInterface defines the message persistence contract.
type MessageRepositoryInterface interface {
	PersistDirect(message *models.Message) error
	PersistGroup(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	MarkConversationRead(userID, peerID uint) (int64, error)
	UnreadDirectSummaries(userID uint) ([]UnreadSummary, error)
	UnreadGroupSummaries(userID uint) ([]UnreadGroupSummary, error)
}

// GroupRepositoryInterface defines the group membership contract.
type GroupRepositoryInterface interface {
	FindByID(id uint) (*models.Group, error)
	MembersOf(groupID uint) ([]uint, error)
	ChannelsOf(userID uint) ([]uint, error)
	IsMember(groupID, userID uint) (bool, error)
	AddMember(groupID, userID uint, role models.GroupRole) error
	RemoveMember(groupID, userID uint) error
	SetRole(groupID, userID uint, role models.GroupRole) error
	Delete(groupID uint) error
	UpsertReadState(groupID, userID uint, lastReadMessageID uint) error
}

// MentionRepositoryInterface defines the mention storage contract.
type MentionRepositoryInterface interface {
	Insert(mention *models.Mention) error
	FindByID(id uint) (*models.Mention, error)
	SetRead(id uint) error
}

// ReactionRepositoryInterface defines the reaction storage contract.
type ReactionRepositoryInterface interface {
	// Upsert stores the reaction if absent. created is false when an
	// identical reaction already existed.
	Upsert(reaction *models.Reaction) (created bool, err error)
	// Delete removes a matching reaction. removed is false when no such
	// reaction existed.
	Delete(messageID, userID uint, reactionType string) (removed bool, err error)
	CountFor(messageID uint, reactionType string) (int64, error)
}

// UnreadSummary is one direct-message peer with pending unread messages.
type UnreadSummary struct {
	PeerID uint  `json:"peer_id"`
	Count  int64 `json:"count"`
}

// UnreadGroupSummary is one group with messages past the member's read mark.
type UnreadGroupSummary struct {
	GroupID uint  `json:"group_id"`
	Count   int64 `json:"count"`
}
