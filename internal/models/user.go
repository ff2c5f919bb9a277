package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username string     `gorm:"uniqueIndex;not null" json:"username"`
	FullName string     `json:"full_name"`
	Avatar   string     `json:"avatar"`
	IsOnline bool       `gorm:"default:false" json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

type UserResponse struct {
	ID       uint       `json:"id"`
	Username string     `json:"username"`
	FullName string     `json:"full_name"`
	Avatar   string     `json:"avatar"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
		IsOnline: u.IsOnline,
		LastSeen: u.LastSeen,
	}
}

// Friendship is the social-graph edge used to scope presence broadcasts.
type Friendship struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	FriendID  uint      `gorm:"primaryKey" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}
