package models

import (
	"time"

	"gorm.io/gorm"
)

// MessageScope distinguishes direct-pair messages from group-channel messages.
type MessageScope string

const (
	ScopeDirect MessageScope = "direct"
	ScopeGroup  MessageScope = "group"
)

type Message struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Client-side tracking
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender" json:"client_id"` // UUID for deduplication

	SenderID    uint  `gorm:"not null;uniqueIndex:idx_client_sender;index" json:"sender_id"`
	RecipientID *uint `gorm:"index" json:"recipient_id"` // null for group messages
	GroupID     *uint `gorm:"index" json:"group_id"`     // null for direct messages

	Content string `gorm:"type:text;not null" json:"content"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}

// Scope reports whether the message belongs to a direct pair or a group channel.
func (m *Message) Scope() MessageScope {
	if m.GroupID != nil {
		return ScopeGroup
	}
	return ScopeDirect
}

type MessageResponse struct {
	ID          uint      `json:"id"`
	ClientID    string    `json:"client_id"`
	SenderID    uint      `json:"sender_id"`
	RecipientID *uint     `json:"recipient_id"`
	GroupID     *uint     `json:"group_id"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		ClientID:    m.ClientID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		GroupID:     m.GroupID,
		Content:     m.Content,
		IsRead:      m.IsRead,
		CreatedAt:   m.CreatedAt,
	}
}
