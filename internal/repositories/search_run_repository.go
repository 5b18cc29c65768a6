package repositories

import (
	"errors"

	"alize_backend/internal/models"

	"gorm.io/gorm"
)

// searchRunHistory is how many runs we keep per user.
const searchRunHistory = 8

type SearchRunRepository interface {
	Create(run *models.JobSearchRun) error
	FindLatest(userID string) (*models.JobSearchRun, error)
	// Prune removes runs beyond the per-user history window.
	Prune(userID string) error
}

type SearchRunRepositoryImpl struct {
	db *gorm.DB
}

func NewSearchRunRepository(db *gorm.DB) SearchRunRepository {
	return &SearchRunRepositoryImpl{db: db}
}

func (r *SearchRunRepositoryImpl) Create(run *models.JobSearchRun) error {
	return r.db.Create(run).Error
}

func (r *SearchRunRepositoryImpl) FindLatest(userID string) (*models.JobSearchRun, error) {
	var run models.JobSearchRun
	err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *SearchRunRepositoryImpl) Prune(userID string) error {
	var staleIDs []string
	err := r.db.Model(&models.JobSearchRun{}).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(searchRunHistory).
		Limit(1000).
		Pluck("id", &staleIDs).Error
	if err != nil {
		return err
	}
	if len(staleIDs) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", staleIDs).Delete(&models.JobSearchRun{}).Error
}
