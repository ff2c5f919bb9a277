package models

import "time"

// Reaction is set-like: at most one row per (message, user, type).
type Reaction struct {
	MessageID uint         `gorm:"primaryKey" json:"message_id"`
	UserID    uint         `gorm:"primaryKey" json:"user_id"`
	Type      string       `gorm:"primaryKey;size:32" json:"type"`
	Scope     MessageScope `gorm:"type:varchar(10);not null" json:"scope"`
	CreatedAt time.Time    `json:"created_at"`
}
