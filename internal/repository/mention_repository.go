package repository

import (
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"gorm.io/gorm"
)

type MentionRepository struct {
	db *gorm.DB
}

func NewMentionRepository(db *gorm.DB) *MentionRepository {
	return &MentionRepository{db: db}
}

func (r *MentionRepository) Insert(mention *models.Mention) error {
	return r.db.Create(mention).Error
}

func (r *MentionRepository) FindByID(id uint) (*models.Mention, error) {
	var mention models.Mention
	err := r.db.First(&mention, id).Error
	return &mention, err
}

func (r *MentionRepository) SetRead(id uint) error {
	return r.db.Model(&models.Mention{}).Where("id = ?", id).Update("is_read", true).Error
}
