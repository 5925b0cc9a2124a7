package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Session Configuration
	JWTSecretKey   string        `mapstructure:"JWT_SECRET_KEY"`
	SessionTTLDays int           `mapstructure:"SESSION_TTL_DAYS"`
	SessionTTL     time.Duration `mapstructure:"-"`

	// OAuth Providers
	SpotifyClientID     string `mapstructure:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `mapstructure:"SPOTIFY_CLIENT_SECRET"`
	StravaClientID      string `mapstructure:"STRAVA_CLIENT_ID"`
	StravaClientSecret  string `mapstructure:"STRAVA_CLIENT_SECRET"`

	// BaseURL is the externally reachable address of this server; provider
	// callback URLs are derived from it as {BaseURL}/{provider}/callback.
	BaseURL string `mapstructure:"BASE_URL"`
	// FrontendURL is where callback handlers redirect after the OAuth dance.
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Cron Jobs
	TokenRefreshJobSchedule    string        `mapstructure:"TOKEN_REFRESH_JOB_SCHEDULE"`
	TokenRefreshSweepWindowMin int           `mapstructure:"TOKEN_REFRESH_SWEEP_WINDOW_MINUTES"`
	TokenRefreshSweepWindow    time.Duration `mapstructure:"-"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "rebeat_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("SESSION_TTL_DAYS", 7)

	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	v.SetDefault("TOKEN_REFRESH_JOB_SCHEDULE", "")
	v.SetDefault("TOKEN_REFRESH_SWEEP_WINDOW_MINUTES", 30)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.SessionTTL = time.Duration(cfg.SessionTTLDays) * 24 * time.Hour
	cfg.TokenRefreshSweepWindow = time.Duration(cfg.TokenRefreshSweepWindowMin) * time.Minute

	// Basic validation for critical configs
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("FATAL: JWT_SECRET_KEY is not set. Session tokens cannot be signed without it")
	}
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return nil, fmt.Errorf("FATAL: SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET are not set")
	}
	if cfg.StravaClientID == "" || cfg.StravaClientSecret == "" {
		return nil, fmt.Errorf("FATAL: STRAVA_CLIENT_ID / STRAVA_CLIENT_SECRET are not set")
	}

	return &cfg, nil
}
