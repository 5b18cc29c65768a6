package services

import (
	"context"
	"time"

	"alize_backend/internal/logger"
	"alize_backend/internal/models"
	"alize_backend/internal/repositories"
	"alize_backend/pkg/apperrors"
)

// LivenessProbe reports whether a listing URL still resolves.
type LivenessProbe interface {
	IsAlive(ctx context.Context, url string) bool
}

// LedgerService drives the per-(user,job) state machine:
// new → viewed ↔ saved, and any state → deleted (terminal, soft).
type LedgerService interface {
	// Visit records the first view; repeat visits keep the original
	// viewed_at.
	Visit(userID, jobID string) error
	Save(userID, jobID string) error
	// Unsave puts a saved row back to viewed.
	Unsave(userID, jobID string) error
	Remove(userID, jobID string) error
	// ExpireDead probes the user's active listings and soft-deletes the
	// rows whose source URL is confirmed gone. Returns how many expired.
	ExpireDead(ctx context.Context, userID string) (int, error)
	ListActive(userID string) ([]models.UserJob, error)
}

type ledgerService struct {
	userJobRepo repositories.UserJobRepository
	probe       LivenessProbe
}

func NewLedgerService(userJobRepo repositories.UserJobRepository, probe LivenessProbe) LedgerService {
	return &ledgerService{userJobRepo: userJobRepo, probe: probe}
}

func (s *ledgerService) transition(userID, jobID string, to models.JobStatus) error {
	row, err := s.userJobRepo.Find(userID, jobID)
	if err != nil {
		return err
	}
	if !row.Status.Active() {
		return apperrors.ErrInvalidStatus("ledger", "job entry is deleted")
	}
	if row.Status == to {
		return nil
	}
	return s.userJobRepo.UpdateStatus(userID, jobID, to)
}

func (s *ledgerService) Visit(userID, jobID string) error {
	row, err := s.userJobRepo.Find(userID, jobID)
	if err != nil {
		return err
	}
	if !row.Status.Active() {
		return apperrors.ErrInvalidStatus("ledger", "job entry is deleted")
	}
	if err := s.userJobRepo.MarkViewed(userID, jobID, time.Now()); err != nil {
		return err
	}
	// Saved rows stay saved when revisited.
	if row.Status == models.JobStatusNew {
		return s.userJobRepo.UpdateStatus(userID, jobID, models.JobStatusViewed)
	}
	return nil
}

func (s *ledgerService) Save(userID, jobID string) error {
	if err := s.userJobRepo.MarkViewed(userID, jobID, time.Now()); err != nil {
		return err
	}
	return s.transition(userID, jobID, models.JobStatusSaved)
}

func (s *ledgerService) Unsave(userID, jobID string) error {
	row, err := s.userJobRepo.Find(userID, jobID)
	if err != nil {
		return err
	}
	if row.Status != models.JobStatusSaved {
		return apperrors.ErrInvalidStatus("ledger", "job entry is not saved")
	}
	return s.userJobRepo.UpdateStatus(userID, jobID, models.JobStatusViewed)
}

func (s *ledgerService) Remove(userID, jobID string) error {
	row, err := s.userJobRepo.Find(userID, jobID)
	if err != nil {
		return err
	}
	if row.Status == models.JobStatusDeleted {
		return nil
	}
	return s.userJobRepo.UpdateStatus(userID, jobID, models.JobStatusDeleted)
}

func (s *ledgerService) ExpireDead(ctx context.Context, userID string) (int, error) {
	rows, err := s.userJobRepo.ListActive(userID)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range rows {
		row := &rows[i]
		if row.Job == nil {
			continue
		}
		if s.probe.IsAlive(ctx, row.Job.URL) {
			continue
		}
		if err := s.userJobRepo.UpdateStatus(userID, row.JobID, models.JobStatusDeleted); err != nil {
			logger.WithError(err).Warn("failed to expire dead listing", "user_id", userID, "job_id", row.JobID)
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *ledgerService) ListActive(userID string) ([]models.UserJob, error) {
	return s.userJobRepo.ListActive(userID)
}
