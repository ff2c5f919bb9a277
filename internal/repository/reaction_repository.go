package repository

import (
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"gorm.io/gorm"
)

type ReactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Upsert inserts the reaction unless an identical one exists. The conflict
// target is the (message, user, type) primary key, so a repeat add is a
// no-op reported through created=false.
func (r *ReactionRepository) Upsert(reaction *models.Reaction) (bool, error) {
	result := r.db.Exec(`
		INSERT INTO reactions (message_id, user_id, type, scope, created_at)
		VALUES (?, ?, ?, ?, NOW())
		ON CONFLICT (message_id, user_id, type) DO NOTHING
	`, reaction.MessageID, reaction.UserID, reaction.Type, reaction.Scope)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReactionRepository) Delete(messageID, userID uint, reactionType string) (bool, error) {
	result := r.db.Where("message_id = ? AND user_id = ? AND type = ?",
		messageID, userID, reactionType).Delete(&models.Reaction{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReactionRepository) CountFor(messageID uint, reactionType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Reaction{}).
		Where("message_id = ? AND type = ?", messageID, reactionType).
		Count(&count).Error
	return count, err
}
