package services

import (
	"context"
	"time"

	"alize_backend/internal/logger"
	"alize_backend/internal/models"
	"alize_backend/internal/pkg/email"
	"alize_backend/internal/repositories"
	"alize_backend/pkg/apperrors"
)

// Cooldown intervals per notification frequency, in minutes. The gate
// runs on last_search_at, never on last_email_at, so a skipped or
// failed email cannot delay the next cycle and a failed search cannot
// shorten it.
var frequencyMinutes = map[string]int{
	models.FrequencyDaily:      1440,
	models.FrequencyWeekly:     10080,
	models.FrequencyEvery3Days: 4320,
}

func cooldownFor(frequency string) time.Duration {
	minutes, ok := frequencyMinutes[frequency]
	if !ok {
		minutes = frequencyMinutes[models.FrequencyEvery3Days]
	}
	return time.Duration(minutes) * time.Minute
}

// NotificationConfig holds the delivery-side settings the digest needs.
type NotificationConfig struct {
	FrontendURL string
	BackendURL  string
	// EmailTo reroutes every digest to one address when set, for
	// staging environments.
	EmailTo string
}

type NotificationService interface {
	// ProcessUser runs one full cycle for a user: cooldown gate, forced
	// search, digest selection, render, send, at-most-once stamping.
	// A send failure is not an error of the cycle: the rows stay
	// unnotified and become eligible again next time.
	ProcessUser(ctx context.Context, user *models.User) error
	// Unsubscribe disables notifications for the token's owner.
	Unsubscribe(token string) error
}

type notificationService struct {
	cfg         NotificationConfig
	userRepo    repositories.UserRepository
	prefRepo    repositories.PreferenceRepository
	userJobRepo repositories.UserJobRepository
	search      SearchService
	sender      email.Sender
}

func NewNotificationService(
	cfg NotificationConfig,
	userRepo repositories.UserRepository,
	prefRepo repositories.PreferenceRepository,
	userJobRepo repositories.UserJobRepository,
	search SearchService,
	sender email.Sender,
) NotificationService {
	return &notificationService{
		cfg:         cfg,
		userRepo:    userRepo,
		prefRepo:    prefRepo,
		userJobRepo: userJobRepo,
		search:      search,
		sender:      sender,
	}
}

func (s *notificationService) ProcessUser(ctx context.Context, user *models.User) error {
	log := logger.With("user_id", user.ID)

	pref, err := s.prefRepo.GetOrCreate(user.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	if pref.LastSearchAt != nil && now.Before(pref.LastSearchAt.Add(cooldownFor(pref.NotificationFrequency))) {
		log.Debug("cooldown not reached", "last_search_at", pref.LastSearchAt)
		return nil
	}

	// The search runs as part of the cycle; its failure degrades to
	// "digest over what we already have", never aborts the user.
	summary, err := s.search.SearchJobsForUser(ctx, user.ID, pref, true)
	if err != nil {
		log.Error("job search failed", "error", err)
	} else if summary.Ran {
		log.Info("job search completed", "inserted", summary.Inserted, "attached", summary.Attached)
	}

	rows, err := s.userJobRepo.TopUnnotified(user.ID, pref.MaxJobs)
	if err != nil {
		return apperrors.ErrDatabase(err, "load digest selection")
	}

	token, err := s.userRepo.EnsureUnsubscribeToken(user.ID)
	if err != nil {
		return err
	}
	unsubscribeURL := s.cfg.BackendURL + "/notify/unsubscribe/" + token

	to := user.Email
	if s.cfg.EmailTo != "" {
		to = s.cfg.EmailTo
	}
	frequency := pref.NotificationFrequency

	if len(rows) == 0 {
		if !pref.SendEmptyDigest {
			log.Debug("no jobs and empty digests disabled")
			return nil
		}
		text, htmlBody := buildEmptyDigestBody(frequency, s.cfg.FrontendURL, unsubscribeURL)
		if err := s.sender.Send(ctx, &email.Message{
			To: to, Subject: "Vos offres Alizé", Text: text, HTML: htmlBody,
		}); err != nil {
			log.Error("empty digest delivery failed", "error", err)
			return nil
		}
		return s.userJobRepo.StampDigestSent(user.ID, nil, time.Now())
	}

	jobs := make([]digestJob, 0, len(rows))
	jobIDs := make([]string, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		if row.Job == nil {
			continue
		}
		jobs = append(jobs, digestJob{
			Title:    row.Job.Title,
			Company:  row.Job.Company,
			Location: row.Job.Location,
			URL:      row.Job.URL,
			Score:    row.Score,
		})
		jobIDs = append(jobIDs, row.JobID)
	}
	if len(jobs) == 0 {
		return nil
	}

	text, htmlBody := buildDigestBody(jobs, frequency, s.cfg.FrontendURL, unsubscribeURL)
	if err := s.sender.Send(ctx, &email.Message{
		To: to, Subject: digestSubject(len(jobs)), Text: text, HTML: htmlBody,
	}); err != nil {
		// Rows stay unnotified; they are selected again next cycle.
		log.Error("digest delivery failed", "jobs", len(jobs), "error", err)
		return nil
	}

	// Stamping and last_email_at move together, once, only on success.
	if err := s.userJobRepo.StampDigestSent(user.ID, jobIDs, time.Now()); err != nil {
		return apperrors.ErrDatabase(err, "stamp digest rows")
	}
	log.Info("digest sent", "jobs", len(jobs), "to", to)
	return nil
}

func (s *notificationService) Unsubscribe(token string) error {
	user, err := s.userRepo.FindByUnsubscribeToken(token)
	if err != nil {
		return err
	}
	return s.userRepo.DisableNotifications(user.ID)
}
