package repository

import (
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) UpdateOnlineStatus(userID uint, isOnline bool) error {
	updates := map[string]interface{}{"is_online": isOnline}
	if !isOnline {
		updates["last_seen"] = gorm.Expr("NOW()")
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

// FriendsOf returns the user IDs whose clients should see this user's
// presence transitions.
func (r *UserRepository) FriendsOf(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}
