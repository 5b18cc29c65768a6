package repositories

import (
	"errors"
	"time"

	"alize_backend/internal/models"

	"gorm.io/gorm"
)

var ErrPreferenceNotFound = errors.New("preference not found")

type PreferenceRepository interface {
	// GetOrCreate returns the user's preference row, creating one with
	// defaults on first access. Safe under concurrent callers: a
	// unique-constraint race resolves to the winning row.
	GetOrCreate(userID string) (*models.UserPreference, error)
	Find(userID string) (*models.UserPreference, error)
	Update(pref *models.UserPreference) error

	// MarkSearched advances last_search_at. This is the cooldown
	// timestamp; it moves whenever a search ran, even if no email
	// followed.
	MarkSearched(userID string, at time.Time) error
}

type PreferenceRepositoryImpl struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &PreferenceRepositoryImpl{db: db}
}

func (r *PreferenceRepositoryImpl) GetOrCreate(userID string) (*models.UserPreference, error) {
	pref, err := r.Find(userID)
	if err == nil {
		return r.withDefaults(pref)
	}
	if !errors.Is(err, ErrPreferenceNotFound) {
		return nil, err
	}

	pref = &models.UserPreference{
		UserID:                userID,
		NotificationFrequency: models.FrequencyEvery3Days,
		SendEmptyDigest:       true,
		MaxJobs:               models.DefaultMaxDigestJobs,
	}
	if err := r.db.Create(pref).Error; err != nil {
		if isUniqueViolation(err) {
			// another request created the row first
			return r.Find(userID)
		}
		return nil, err
	}
	return pref, nil
}

// withDefaults backfills rows created before the notification columns
// existed.
func (r *PreferenceRepositoryImpl) withDefaults(pref *models.UserPreference) (*models.UserPreference, error) {
	updated := false
	if pref.NotificationFrequency == "" {
		pref.NotificationFrequency = models.FrequencyEvery3Days
		updated = true
	}
	if pref.MaxJobs <= 0 {
		pref.MaxJobs = models.DefaultMaxDigestJobs
		updated = true
	}
	if updated {
		if err := r.Update(pref); err != nil {
			return nil, err
		}
	}
	return pref, nil
}

func (r *PreferenceRepositoryImpl) Find(userID string) (*models.UserPreference, error) {
	var pref models.UserPreference
	err := r.db.First(&pref, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPreferenceNotFound
		}
		return nil, err
	}
	return &pref, nil
}

func (r *PreferenceRepositoryImpl) Update(pref *models.UserPreference) error {
	result := r.db.Model(pref).Updates(map[string]interface{}{
		"role":                   pref.Role,
		"location":               pref.Location,
		"contract_type":          pref.ContractType,
		"salary_min":             pref.SalaryMin,
		"must_keywords":          pref.MustKeywords,
		"avoid_keywords":         pref.AvoidKeywords,
		"notification_frequency": pref.NotificationFrequency,
		"send_empty_digest":      pref.SendEmptyDigest,
		"max_jobs":               pref.MaxJobs,
		"updated_at":             time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPreferenceNotFound
	}
	return nil
}

func (r *PreferenceRepositoryImpl) MarkSearched(userID string, at time.Time) error {
	return r.db.Model(&models.UserPreference{}).
		Where("user_id = ?", userID).
		Update("last_search_at", at).Error
}
