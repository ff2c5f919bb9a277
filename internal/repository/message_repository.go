package repository

import (
	"errors"

	"github.com/halcyonchat/halcyon-backend/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) PersistDirect(message *models.Message) error {
	if message.RecipientID == nil {
		return errors.New("direct message requires a recipient")
	}
	message.GroupID = nil
	return r.db.Create(message).Error
}

func (r *MessageRepository) PersistGroup(message *models.Message) error {
	if message.GroupID == nil {
		return errors.New("group message requires a group")
	}
	message.RecipientID = nil
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, id).Error
	return &message, err
}

// MarkConversationRead marks every unread message from peerID to userID as
// read and returns how many rows changed.
func (r *MessageRepository) MarkConversationRead(userID, peerID uint) (int64, error) {
	result := r.db.Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND is_read = false", peerID, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}

// UnreadDirectSummaries returns, per peer, how many direct messages addressed
// to userID are still unread. Drives the unread-messages-pending event.
func (r *MessageRepository) UnreadDirectSummaries(userID uint) ([]UnreadSummary, error) {
	var rows []UnreadSummary
	err := r.db.Model(&models.Message{}).
		Select("sender_id AS peer_id, COUNT(*) AS count").
		Where("recipient_id = ? AND is_read = false", userID).
		Group("sender_id").
		Scan(&rows).Error
	return rows, err
}

// UnreadGroupSummaries returns, per group the user belongs to, how many
// messages sit past the member's read mark.
func (r *MessageRepository) UnreadGroupSummaries(userID uint) ([]UnreadGroupSummary, error) {
	var rows []UnreadGroupSummary
	err := r.db.Raw(`
		SELECT gm.group_id AS group_id, COUNT(m.id) AS count
		FROM group_members gm
		LEFT JOIN group_read_states grs
			ON grs.group_id = gm.group_id AND grs.user_id = gm.user_id
		JOIN messages m
			ON m.group_id = gm.group_id
			AND m.sender_id <> gm.user_id
			AND m.id > COALESCE(grs.last_read_message_id, 0)
			AND m.deleted_at IS NULL
		WHERE gm.user_id = ?
		GROUP BY gm.group_id
	`, userID).Scan(&rows).Error
	return rows, err
}
