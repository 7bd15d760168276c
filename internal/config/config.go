// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DBURL              string        `mapstructure:"DB_URL"`
	HTTPAddr           string        `mapstructure:"HTTP_ADDR"`
	GithubToken        string        `mapstructure:"GITHUB_TOKEN"`
	GithubClientID     string        `mapstructure:"GITHUB_CLIENT_ID"`
	GithubClientSecret string        `mapstructure:"GITHUB_CLIENT_SECRET"`
	OAuthCallbackURL   string        `mapstructure:"OAUTH_CALLBACK_URL"`
	SessionSecret      string        `mapstructure:"SESSION_SECRET"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	JobWorkers         int           `mapstructure:"JOB_WORKERS"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("SESSION_TTL", "12h")
	viper.SetDefault("JOB_WORKERS", 3)

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields. GITHUB_TOKEN is optional: without it,
	// anonymous API calls are made for repositories whose owner holds no
	// access token of their own.
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.GithubClientID == "" || cfg.GithubClientSecret == "" {
		return nil, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required configuration fields")
	}
	if cfg.OAuthCallbackURL == "" {
		return nil, errors.New("OAUTH_CALLBACK_URL is a required configuration field")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is a required configuration field")
	}
	if cfg.JobWorkers <= 0 {
		return nil, errors.New("JOB_WORKERS must be a positive integer")
	}

	return &cfg, nil
}
