package common

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Env    string
	Port   string
	Domain string

	SqliteDB    string
	AnalyticsDB string

	SessionSecret string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	ContactTo    string

	AdminEmails      []string
	BackofficeEmails []string

	CacheDir    string
	CacheMaxAge time.Duration
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env file")
	}

	cfg := &Config{
		Env:    envOrDefault("APP_ENV", "development"),
		Port:   envOrDefault("PORT", "8080"),
		Domain: strings.TrimSuffix(envOrDefault("DOMAIN", "http://localhost:8080"), "/"),

		SqliteDB:    envOrDefault("SQLITE_DB", "homeschoolhub.db"),
		AnalyticsDB: os.Getenv("ANALYTICS_DB"),

		SessionSecret: os.Getenv("SESSION_SECRET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envOrDefault("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		ContactTo:    os.Getenv("CONTACT_TO"),

		AdminEmails:      splitList(os.Getenv("ADMIN_EMAILS")),
		BackofficeEmails: splitList(os.Getenv("BACKOFFICE_EMAILS")),

		CacheDir:    envOrDefault("CACHE_DIR", "cache"),
		CacheMaxAge: time.Hour,
	}

	if v := os.Getenv("CACHE_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.New("CACHE_MAX_AGE must be a duration such as 30m")
		}
		cfg.CacheMaxAge = d
	}

	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET environment variable not set")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
