package repositories

import (
	"errors"

	"alize_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type UserRepository interface {
	FindByID(id string) (*models.User, error)
	FindNotifiable() ([]models.User, error)
	FindByUnsubscribeToken(token string) (*models.User, error)

	// EnsureUnsubscribeToken returns the user's unsubscribe token,
	// generating and persisting one on first use.
	EnsureUnsubscribeToken(userID string) (string, error)

	// DisableNotifications flips notifications_enabled off (unsubscribe link).
	DisableNotifications(userID string) error

	// Delete removes the user and cascades to CVs, preferences and
	// ledger rows.
	Delete(userID string) error
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindNotifiable() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("notifications_enabled = ?", true).
		Order("created_at asc").
		Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) FindByUnsubscribeToken(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	var user models.User
	err := r.db.First(&user, "unsubscribe_token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) EnsureUnsubscribeToken(userID string) (string, error) {
	user, err := r.FindByID(userID)
	if err != nil {
		return "", err
	}
	if user.UnsubscribeToken != "" {
		return user.UnsubscribeToken, nil
	}

	token := uuid.NewString() + uuid.NewString()
	err = r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("unsubscribe_token", token).Error
	if err != nil {
		return "", err
	}
	return token, nil
}

func (r *UserRepositoryImpl) DisableNotifications(userID string) error {
	result := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("notifications_enabled", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) Delete(userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserJob{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.CV{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserPreference{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.JobSearchRun{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, "id = ?", userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
