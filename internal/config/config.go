package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `validate:"required"`
	Env         string `validate:"oneof=development production test"`
	DatabaseURL string

	JWTSecret        string        `validate:"required"`
	JWTAccessExpiry  time.Duration `validate:"gt=0"`
	JWTRefreshExpiry time.Duration `validate:"gt=0"`

	FrontendCallbackURL string `validate:"required"`
	BaseURL             string `validate:"required,url"`

	// Pages a browser is sent to when a route guard denies access.
	DefaultRedirectPath string `validate:"required,startswith=/"`
	SignInPath          string `validate:"required,startswith=/"`

	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFile     string
	MetricsAddr string

	RedisURL string

	PasswordResetExpiry time.Duration `validate:"gt=0"`
	// Page that accepts ?token= and posts the new password.
	PasswordResetURL string `validate:"required,url"`

	GitHub OAuthConfig
	GitLab OAuthConfig
	Google OAuthConfig

	SMTP    SMTPConfig
	Storage StorageConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type StorageConfig struct {
	Backend string `validate:"oneof=local s3"`

	Local LocalStorageConfig
	S3    S3StorageConfig
}

type LocalStorageConfig struct {
	BasePath  string
	PublicURL string
}

type S3StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

var validate = validator.New()

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"))
	if err != nil {
		refreshExpiry = 168 * time.Hour
	}

	resetExpiry, err := time.ParseDuration(getEnv("PASSWORD_RESET_EXPIRY", "1h"))
	if err != nil {
		resetExpiry = time.Hour
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		FrontendCallbackURL: getEnv("FRONTEND_CALLBACK_URL", "http://localhost:3000/api/auth/callback"),
		BaseURL:             baseURL,

		DefaultRedirectPath: getEnv("DEFAULT_REDIRECT_PATH", "/"),
		SignInPath:          getEnv("SIGNIN_PATH", "/signin"),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		RedisURL: getEnv("REDIS_URL", ""),

		PasswordResetExpiry: resetExpiry,
		PasswordResetURL:    getEnv("PASSWORD_RESET_URL", "http://localhost:3000/reset-password"),

		GitHub: OAuthConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GITHUB_REDIRECT_URL", ""),
		},
		GitLab: OAuthConfig{
			ClientID:     getEnv("GITLAB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITLAB_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GITLAB_REDIRECT_URL", ""),
		},
		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},

		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "local"),
			Local: LocalStorageConfig{
				BasePath:  getEnv("STORAGE_LOCAL_PATH", "./data/uploads"),
				PublicURL: getEnv("STORAGE_PUBLIC_URL", baseURL+"/uploads"),
			},
			S3: S3StorageConfig{
				Bucket:          getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				PublicURL:       getEnv("S3_PUBLIC_URL", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags and the storage settings that depend on
// the selected backend.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Backend == "s3" && (c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "") {
		return fmt.Errorf("invalid config: S3_BUCKET and S3_REGION are required for the s3 storage backend")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
