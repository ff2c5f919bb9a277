package models

import "time"

type Mention struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	MessageID uint         `gorm:"not null;uniqueIndex:idx_message_target;index" json:"message_id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_message_target;index" json:"user_id"` // mentioned user
	ByUserID  uint         `gorm:"not null" json:"by_user_id"`
	Scope     MessageScope `gorm:"type:varchar(10);not null" json:"scope"`
	GroupID   *uint        `gorm:"index" json:"group_id"` // null for direct scope

	// Only mutable field after creation.
	IsRead bool `gorm:"default:false;index" json:"is_read"`
}

type MentionResponse struct {
	ID        uint         `json:"id"`
	MessageID uint         `json:"message_id"`
	UserID    uint         `json:"user_id"`
	ByUserID  uint         `json:"by_user_id"`
	Scope     MessageScope `json:"scope"`
	GroupID   *uint        `json:"group_id"`
	IsRead    bool         `json:"is_read"`
	CreatedAt time.Time    `json:"created_at"`
}

func (m *Mention) ToResponse() MentionResponse {
	return MentionResponse{
		ID:        m.ID,
		MessageID: m.MessageID,
		UserID:    m.UserID,
		ByUserID:  m.ByUserID,
		Scope:     m.Scope,
		GroupID:   m.GroupID,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}
