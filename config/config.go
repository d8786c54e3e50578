package config

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Stripe     StripeConfig
	Firebase   FirebaseConfig
	Mail       MailConfig
	Platform   PlatformConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	PublicURL    string // base URL used to build payment and onboarding callbacks
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	// Where the client lands after checkout or Connect onboarding.
	SuccessRedirectURL    string
	CancelRedirectURL     string
	OnboardingRedirectURL string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type MailConfig struct {
	Region      string
	FromAddress string
}

type PlatformConfig struct {
	DefaultCommissionPercentage float64
	AdminEmail                  string
	AdminPassword               string
}

// Load reads configuration from an optional .env file in path and from the
// environment. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Println("[config] no .env file found, using environment")
	}
	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Env:          v.GetString("APP_ENV"),
			PublicURL:    v.GetString("PUBLIC_URL"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("DATABASE_DSN"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
			AccessExpiry:  v.GetDuration("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: v.GetDuration("JWT_REFRESH_EXPIRY"),
			Issuer:        v.GetString("JWT_ISSUER"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:    v.GetString("CLOUDINARY_API_KEY"),
			APISecret: v.GetString("CLOUDINARY_API_SECRET"),
			Folder:    v.GetString("CLOUDINARY_FOLDER"),
		},
		Stripe: StripeConfig{
			SecretKey:             v.GetString("STRIPE_API_KEY"),
			WebhookSecret:         v.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:              v.GetString("STRIPE_CURRENCY"),
			SuccessRedirectURL:    v.GetString("STRIPE_SUCCESS_REDIRECT_URL"),
			CancelRedirectURL:     v.GetString("STRIPE_CANCEL_REDIRECT_URL"),
			OnboardingRedirectURL: v.GetString("STRIPE_ONBOARDING_REDIRECT_URL"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: v.GetString("FIREBASE_SERVICE_ACCOUNT_PATH"),
		},
		Mail: MailConfig{
			Region:      v.GetString("AWS_REGION"),
			FromAddress: v.GetString("MAIL_FROM_ADDRESS"),
		},
		Platform: PlatformConfig{
			DefaultCommissionPercentage: v.GetFloat64("DEFAULT_COMMISSION_PERCENTAGE"),
			AdminEmail:                  v.GetString("ADMIN_EMAIL"),
			AdminPassword:               v.GetString("ADMIN_PASSWORD"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8099")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PUBLIC_URL", "http://localhost:8099")
	v.SetDefault("SERVER_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 10*time.Second)

	v.SetDefault("DATABASE_DSN", "root:@tcp(localhost:3306)/jobmarket?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 10)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 100)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", time.Hour)

	v.SetDefault("JWT_ACCESS_SECRET", "change-me-in-production")
	v.SetDefault("JWT_REFRESH_SECRET", "change-me-refresh")
	v.SetDefault("JWT_ACCESS_EXPIRY", 15*time.Minute)
	v.SetDefault("JWT_REFRESH_EXPIRY", 168*time.Hour)
	v.SetDefault("JWT_ISSUER", "jobmarket")

	v.SetDefault("CLOUDINARY_FOLDER", "jobmarket")
	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("DEFAULT_COMMISSION_PERCENTAGE", 5)
}
