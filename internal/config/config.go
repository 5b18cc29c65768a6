package config

import (
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Env string `yaml:"env" validate:"omitempty,oneof=development production"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url" validate:"required"`
	} `yaml:"database"`

	Email struct {
		// HTTP API transport (primary)
		ResendAPIKey  string `yaml:"resend_api_key"`
		ResendFrom    string `yaml:"resend_from" validate:"omitempty,email"`
		ResendBaseURL string `yaml:"resend_base_url"`

		// SMTP transport (fallback)
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port" validate:"omitempty,min=1,max=65535"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email" validate:"omitempty,email"`
		FromName     string `yaml:"from_name"`
		UseSSL       bool   `yaml:"use_ssl"` // implicit TLS (port 465 style)
	} `yaml:"email"`

	Providers struct {
		AdzunaAppID   string `yaml:"adzuna_app_id"`
		AdzunaAppKey  string `yaml:"adzuna_app_key"`
		AdzunaCountry string `yaml:"adzuna_country"`

		FranceTravailClientID     string `yaml:"francetravail_client_id"`
		FranceTravailClientSecret string `yaml:"francetravail_client_secret"`
	} `yaml:"providers"`

	Notify struct {
		Enabled      bool   `yaml:"enabled"`
		TickMinutes  int    `yaml:"tick_minutes" validate:"omitempty,min=1"`
		Workers      int    `yaml:"workers" validate:"omitempty,min=1,max=64"`
		FrontendURL  string `yaml:"frontend_url"`
		BackendURL   string `yaml:"backend_url"`
		EmailTo      string `yaml:"email_to" validate:"omitempty,email"` // override recipient, debug only
		StaleJobDays int    `yaml:"stale_job_days" validate:"omitempty,min=1"`
	} `yaml:"notify"`
}

var AppConfig *Config

var validate = validator.New()

// LoadConfig reads config/config.yaml, or builds the whole config from
// environment variables when DATABASE_URL is set (test / container mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		mustValidate(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = envOr("SERVER_ENV", "development")

	cfg.Email.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.Email.ResendFrom = os.Getenv("RESEND_FROM")
	cfg.Email.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.Email.SMTPPort = envIntOr("SMTP_PORT", 587)
	cfg.Email.SMTPUsername = os.Getenv("SMTP_USER")
	cfg.Email.SMTPPassword = os.Getenv("SMTP_PASS")
	cfg.Email.FromEmail = envOr("SMTP_FROM", os.Getenv("SMTP_USER"))
	cfg.Email.FromName = envOr("SMTP_FROM_NAME", "Alizé")
	cfg.Email.UseSSL = os.Getenv("SMTP_USE_SSL") == "true"

	cfg.Providers.AdzunaAppID = os.Getenv("ADZUNA_APP_ID")
	cfg.Providers.AdzunaAppKey = os.Getenv("ADZUNA_APP_KEY")
	cfg.Providers.AdzunaCountry = envOr("ADZUNA_COUNTRY", "fr")
	cfg.Providers.FranceTravailClientID = os.Getenv("FRANCETRAVAIL_CLIENT_ID")
	cfg.Providers.FranceTravailClientSecret = os.Getenv("FRANCETRAVAIL_CLIENT_SECRET")

	cfg.Notify.Enabled = envOr("NOTIFY_ENABLED", "true") == "true"
	cfg.Notify.TickMinutes = envIntOr("NOTIFY_TICK_MINUTES", 60)
	cfg.Notify.Workers = envIntOr("NOTIFY_WORKERS", 4)
	cfg.Notify.FrontendURL = envOr("FRONTEND_URL", "https://alize.app")
	cfg.Notify.BackendURL = os.Getenv("BACKEND_URL")
	cfg.Notify.EmailTo = os.Getenv("NOTIFY_EMAIL_TO")
	cfg.Notify.StaleJobDays = envIntOr("STALE_JOB_DAYS", 60)

	applyDefaults(&cfg)
	mustValidate(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Email.ResendBaseURL == "" {
		cfg.Email.ResendBaseURL = "https://api.resend.com"
	}
	if cfg.Providers.AdzunaCountry == "" {
		cfg.Providers.AdzunaCountry = "fr"
	}
	if cfg.Notify.TickMinutes == 0 {
		cfg.Notify.TickMinutes = 60
	}
	if cfg.Notify.Workers == 0 {
		cfg.Notify.Workers = 4
	}
	if cfg.Notify.FrontendURL == "" {
		cfg.Notify.FrontendURL = "https://alize.app"
	}
	if cfg.Notify.StaleJobDays == 0 {
		cfg.Notify.StaleJobDays = 60
	}
}

func mustValidate(cfg *Config) {
	if err := validate.Struct(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
