package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"alize_backend/internal/config"
	"alize_backend/internal/logger"
	"alize_backend/internal/models"
	"alize_backend/internal/pkg/email"
	"alize_backend/internal/providers"
	"alize_backend/internal/repositories"
	"alize_backend/internal/services"
	"alize_backend/internal/workers"
)

// Run wires the whole notification pipeline and blocks until a
// shutdown signal arrives.
func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	migrateStart := time.Now()
	err = gormDB.AutoMigrate(
		&models.User{},
		&models.CV{},
		&models.UserPreference{},
		&models.JobListing{},
		&models.UserJob{},
		&models.JobSearchRun{},
	)
	logger.DBLog("auto_migrate", time.Since(migrateStart), err)
	if err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(gormDB)
	cvRepo := repositories.NewCVRepository(gormDB)
	prefRepo := repositories.NewPreferenceRepository(gormDB)
	jobRepo := repositories.NewJobRepository(gormDB)
	userJobRepo := repositories.NewUserJobRepository(gormDB)
	searchRunRepo := repositories.NewSearchRunRepository(gormDB)

	// Email transports: HTTP API first, SMTP as fallback.
	var chain []email.Sender
	apiSender := email.NewAPISender(email.APIConfig{
		APIKey:  cfg.Email.ResendAPIKey,
		From:    cfg.Email.ResendFrom,
		BaseURL: cfg.Email.ResendBaseURL,
	})
	if apiSender.Configured() {
		chain = append(chain, apiSender)
	}
	smtpSender := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.FromEmail,
		FromName: cfg.Email.FromName,
		UseSSL:   cfg.Email.UseSSL,
	})
	if smtpSender.Configured() {
		chain = append(chain, smtpSender)
	}
	if len(chain) == 0 {
		logger.Warn("no email transport configured, digests will not be delivered")
	}
	sender := email.NewFallbackSender(chain...)

	// Job sources
	var sources []providers.Provider
	if ft := providers.NewFranceTravail(cfg.Providers.FranceTravailClientID, cfg.Providers.FranceTravailClientSecret); ft.Configured() {
		sources = append(sources, ft)
	}
	if az := providers.NewAdzuna(cfg.Providers.AdzunaAppID, cfg.Providers.AdzunaAppKey, cfg.Providers.AdzunaCountry); az.Configured() {
		sources = append(sources, az)
	}
	sources = append(sources, providers.NewRemotive())
	logger.Info("Job sources configured", "count", len(sources))

	// Services
	ingestService := services.NewIngestService(jobRepo)
	matchingService := services.NewMatchingService(userJobRepo)
	searchService := services.NewSearchService(prefRepo, cvRepo, searchRunRepo, userJobRepo, ingestService, matchingService, sources)
	notifyService := services.NewNotificationService(services.NotificationConfig{
		FrontendURL: cfg.Notify.FrontendURL,
		BackendURL:  cfg.Notify.BackendURL,
		EmailTo:     cfg.Notify.EmailTo,
	}, userRepo, prefRepo, userJobRepo, searchService, sender)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Notify.Enabled {
		worker := workers.NewNotifyWorker(
			userRepo, jobRepo, notifyService,
			cfg.Notify.TickMinutes, cfg.Notify.Workers, cfg.Notify.StaleJobDays,
		)
		if err := worker.Start(ctx); err != nil {
			logger.Fatal("Failed to start notify worker", "error", err)
		}
		defer worker.Stop()
	} else {
		logger.Warn("notifications disabled by config")
	}

	<-ctx.Done()
	logger.Info("Shutting down")
}
