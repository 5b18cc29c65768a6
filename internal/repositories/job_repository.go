package repositories

import (
	"errors"
	"time"

	"alize_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobAlreadyExists = errors.New("job already exists")
)

// fuzzyCandidateLimit bounds the duplicate scan window.
const fuzzyCandidateLimit = 100

type JobRepository interface {
	FindByID(id string) (*models.JobListing, error)
	// FindByURL looks a listing up by its normalized URL.
	FindByURL(url string) (*models.JobListing, error)
	// FuzzyCandidates returns up to 100 listings whose company contains
	// the given normalized prefix, for cross-aggregator duplicate
	// detection.
	FuzzyCandidates(companyPrefix string) ([]models.JobListing, error)
	// Create inserts a listing. A unique-constraint hit on the URL is
	// reported as ErrJobAlreadyExists, never as a raw driver error.
	Create(job *models.JobListing) error
	Delete(id string) error
	// DeleteStale removes listings older than cutoff that no user has
	// saved, cascading their ledger rows.
	DeleteStale(cutoff time.Time) (int64, error)
}

type JobRepositoryImpl struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &JobRepositoryImpl{db: db}
}

func (r *JobRepositoryImpl) FindByID(id string) (*models.JobListing, error) {
	var job models.JobListing
	err := r.db.First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepositoryImpl) FindByURL(url string) (*models.JobListing, error) {
	var job models.JobListing
	err := r.db.First(&job, "url = ?", url).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepositoryImpl) FuzzyCandidates(companyPrefix string) ([]models.JobListing, error) {
	if companyPrefix == "" {
		return nil, nil
	}
	var jobs []models.JobListing
	err := r.db.Where("lower(company) LIKE ?", "%"+companyPrefix+"%").
		Limit(fuzzyCandidateLimit).
		Find(&jobs).Error
	return jobs, err
}

func (r *JobRepositoryImpl) Create(job *models.JobListing) error {
	if err := r.db.Create(job).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrJobAlreadyExists
		}
		return err
	}
	return nil
}

func (r *JobRepositoryImpl) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.UserJob{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.JobListing{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrJobNotFound
		}
		return nil
	})
}

func (r *JobRepositoryImpl) DeleteStale(cutoff time.Time) (int64, error) {
	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&models.JobListing{}).
			Where("created_at < ?", cutoff).
			Where("id NOT IN (?)", tx.Model(&models.UserJob{}).
				Select("job_id").
				Where("status = ?", models.JobStatusSaved)).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("job_id IN ?", ids).Delete(&models.UserJob{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.JobListing{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		return nil
	})
	return removed, err
}
