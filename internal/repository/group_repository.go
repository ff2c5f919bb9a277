package repository

import (
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) FindByID(id uint) (*models.Group, error) {
	var group models.Group
	err := r.db.First(&group, id).Error
	return &group, err
}

func (r *GroupRepository) MembersOf(groupID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) ChannelsOf(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GroupRepository) AddMember(groupID, userID uint, role models.GroupRole) error {
	member := models.GroupMember{GroupID: groupID, UserID: userID, Role: role}
	return r.db.Exec(`
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES (?, ?, ?, NOW())
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, member.GroupID, member.UserID, member.Role).Error
}

func (r *GroupRepository) RemoveMember(groupID, userID uint) error {
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error; err != nil {
		return err
	}
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupReadState{}).Error
}

func (r *GroupRepository) SetRole(groupID, userID uint, role models.GroupRole) error {
	return r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role).Error
}

func (r *GroupRepository) Delete(groupID uint) error {
	if err := r.db.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("group_id = ?", groupID).Delete(&models.GroupReadState{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Group{}, groupID).Error
}

// UpsertReadState advances the member's read mark, monotonic per (group, user).
func (r *GroupRepository) UpsertReadState(groupID, userID uint, lastReadMessageID uint) error {
	return r.db.Exec(`
		INSERT INTO group_read_states (group_id, user_id, last_read_message_id, updated_at)
		VALUES (?, ?, ?, NOW())
		ON CONFLICT (group_id, user_id) DO UPDATE
		SET last_read_message_id = GREATEST(group_read_states.last_read_message_id, EXCLUDED.last_read_message_id),
			updated_at = NOW()
	`, groupID, userID, lastReadMessageID).Error
}
