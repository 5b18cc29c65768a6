package repositories

import (
	"errors"
	"time"

	"alize_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserJobNotFound  = errors.New("user job not found")
	ErrInvalidJobStatus = errors.New("invalid job status")
)

type UserJobRepository interface {
	Find(userID, jobID string) (*models.UserJob, error)
	// AttachIfAbsent creates the ledger row unless the (user,job) pair
	// already has one. Returns true when a row was created. Re-matching
	// an existing pair is a no-op, including under concurrent workers.
	AttachIfAbsent(row *models.UserJob) (bool, error)
	// TopUnnotified returns up to limit rows with status=new and no
	// notified_at, best score first, listing preloaded.
	TopUnnotified(userID string, limit int) ([]models.UserJob, error)
	// ListActive returns the user's non-deleted rows, listing preloaded,
	// best score first.
	ListActive(userID string) ([]models.UserJob, error)
	UpdateStatus(userID, jobID string, status models.JobStatus) error
	// MarkViewed sets viewed_at once; later calls keep the first value.
	MarkViewed(userID, jobID string, at time.Time) error
	// StampDigestSent marks the given jobs notified and advances the
	// user's last_email_at in one transaction, so a digest is recorded
	// exactly when its rows are stamped.
	StampDigestSent(userID string, jobIDs []string, at time.Time) error
}

type UserJobRepositoryImpl struct {
	db *gorm.DB
}

func NewUserJobRepository(db *gorm.DB) UserJobRepository {
	return &UserJobRepositoryImpl{db: db}
}

func (r *UserJobRepositoryImpl) Find(userID, jobID string) (*models.UserJob, error) {
	var row models.UserJob
	err := r.db.First(&row, "user_id = ? AND job_id = ?", userID, jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserJobNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserJobRepositoryImpl) AttachIfAbsent(row *models.UserJob) (bool, error) {
	var existing models.UserJob
	err := r.db.Select("id").
		First(&existing, "user_id = ? AND job_id = ?", row.UserID, row.JobID).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if row.Status == "" {
		row.Status = models.JobStatusNew
	}
	if err := r.db.Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			// concurrent attach won the race
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *UserJobRepositoryImpl) TopUnnotified(userID string, limit int) ([]models.UserJob, error) {
	if limit <= 0 {
		limit = models.DefaultMaxDigestJobs
	}
	var rows []models.UserJob
	err := r.db.Preload("Job").
		Where("user_id = ?", userID).
		Where("status = ?", models.JobStatusNew).
		Where("notified_at IS NULL").
		Order("score desc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *UserJobRepositoryImpl) ListActive(userID string) ([]models.UserJob, error) {
	var rows []models.UserJob
	err := r.db.Preload("Job").
		Where("user_id = ?", userID).
		Where("status <> ?", models.JobStatusDeleted).
		Order("score desc").
		Find(&rows).Error
	return rows, err
}

func (r *UserJobRepositoryImpl) UpdateStatus(userID, jobID string, status models.JobStatus) error {
	if !status.Valid() {
		return ErrInvalidJobStatus
	}
	result := r.db.Model(&models.UserJob{}).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserJobNotFound
	}
	return nil
}

func (r *UserJobRepositoryImpl) MarkViewed(userID, jobID string, at time.Time) error {
	return r.db.Model(&models.UserJob{}).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Where("viewed_at IS NULL").
		Update("viewed_at", at).Error
}

func (r *UserJobRepositoryImpl) StampDigestSent(userID string, jobIDs []string, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(jobIDs) > 0 {
			err := tx.Model(&models.UserJob{}).
				Where("user_id = ? AND job_id IN ?", userID, jobIDs).
				Where("notified_at IS NULL").
				Update("notified_at", at).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&models.UserPreference{}).
			Where("user_id = ?", userID).
			Update("last_email_at", at).Error
	})
}
