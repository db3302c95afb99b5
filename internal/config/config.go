// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env            string `mapstructure:"APP_ENV"`
	Port           string `mapstructure:"PORT"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTTTLHours    int    `mapstructure:"JWT_TTL_HOURS"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	AppwriteEndpoint       string `mapstructure:"APPWRITE_ENDPOINT"`
	AppwriteProjectID      string `mapstructure:"APPWRITE_PROJECT_ID"`
	AppwriteAPIKey         string `mapstructure:"APPWRITE_API_KEY"`
	AppwriteSelfSigned     bool   `mapstructure:"APPWRITE_SELF_SIGNED"`
	AppwriteTimeoutSeconds int    `mapstructure:"APPWRITE_TIMEOUT_SECONDS"`
	AppwriteRetryMax       int    `mapstructure:"APPWRITE_RETRY_MAX"`
	DatabaseID             string `mapstructure:"APPWRITE_DATABASE_ID"`
	UserCollectionID       string `mapstructure:"APPWRITE_USER_COLLECTION_ID"`
	PostCollectionID       string `mapstructure:"APPWRITE_POST_COLLECTION_ID"`
	SavesCollectionID      string `mapstructure:"APPWRITE_SAVES_COLLECTION_ID"`
	StorageID              string `mapstructure:"APPWRITE_STORAGE_ID"`
	RealtimeEnabled        bool   `mapstructure:"REALTIME_ENABLED"`

	ImageMaxUploadSizeMB int `mapstructure:"IMAGE_MAX_UPLOAD_SIZE_MB"`

	RedisURL string `mapstructure:"REDIS_URL"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// the base file is optional; env vars and defaults cover everything
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "production" || env == "prod" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_TTL_HOURS", 24*7)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("APPWRITE_ENDPOINT", "https://cloud.appwrite.io/v1")
	viper.SetDefault("APPWRITE_PROJECT_ID", "")
	viper.SetDefault("APPWRITE_API_KEY", "")
	viper.SetDefault("APPWRITE_SELF_SIGNED", false)
	viper.SetDefault("APPWRITE_TIMEOUT_SECONDS", 15)
	viper.SetDefault("APPWRITE_RETRY_MAX", 2)
	viper.SetDefault("APPWRITE_DATABASE_ID", "")
	viper.SetDefault("APPWRITE_USER_COLLECTION_ID", "")
	viper.SetDefault("APPWRITE_POST_COLLECTION_ID", "")
	viper.SetDefault("APPWRITE_SAVES_COLLECTION_ID", "")
	viper.SetDefault("APPWRITE_STORAGE_ID", "")
	viper.SetDefault("REALTIME_ENABLED", true)
	viper.SetDefault("IMAGE_MAX_UPLOAD_SIZE_MB", 10)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "snapgram")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "snapgram.db")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// AppwriteTimeout returns the per-request platform timeout.
func (c *Config) AppwriteTimeout() time.Duration {
	return time.Duration(c.AppwriteTimeoutSeconds) * time.Second
}

// JWTTTL returns how long issued tokens stay valid.
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	required := []struct {
		name, value string
	}{
		{"APPWRITE_ENDPOINT", c.AppwriteEndpoint},
		{"APPWRITE_PROJECT_ID", c.AppwriteProjectID},
		{"APPWRITE_DATABASE_ID", c.DatabaseID},
		{"APPWRITE_USER_COLLECTION_ID", c.UserCollectionID},
		{"APPWRITE_POST_COLLECTION_ID", c.PostCollectionID},
		{"APPWRITE_SAVES_COLLECTION_ID", c.SavesCollectionID},
		{"APPWRITE_STORAGE_ID", c.StorageID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.ImageMaxUploadSizeMB <= 0 {
		return errors.New("IMAGE_MAX_UPLOAD_SIZE_MB must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AppwriteAPIKey == "" {
			return errors.New("APPWRITE_API_KEY is required in production")
		}
		if c.DBDriver == "postgres" {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must not be 'disable' in production")
			}
		}
		if c.AppwriteSelfSigned {
			log.Println("WARNING: APPWRITE_SELF_SIGNED is enabled in production. TLS certificates are not verified.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
