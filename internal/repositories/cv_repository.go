package repositories

import (
	"errors"

	"alize_backend/internal/models"

	"gorm.io/gorm"
)

var ErrCVNotFound = errors.New("cv not found")

type CVRepository interface {
	Create(cv *models.CV) error
	// FindLatest returns the most recent CV for a user.
	FindLatest(userID string) (*models.CV, error)
}

type CVRepositoryImpl struct {
	db *gorm.DB
}

func NewCVRepository(db *gorm.DB) CVRepository {
	return &CVRepositoryImpl{db: db}
}

func (r *CVRepositoryImpl) Create(cv *models.CV) error {
	return r.db.Create(cv).Error
}

func (r *CVRepositoryImpl) FindLatest(userID string) (*models.CV, error) {
	var cv models.CV
	err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		First(&cv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCVNotFound
		}
		return nil, err
	}
	return &cv, nil
}
