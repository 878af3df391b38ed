package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the salama API and portal
type Config struct {
	Server   ServerConfig
	Portal   PortalConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Admin    AdminConfig
	AI       AIConfig
	Upload   UploadConfig
	Seed     SeedConfig
	Cleanup  CleanupConfig
}

// ServerConfig holds the API HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// PortalConfig holds the viewer/admin portal configuration
type PortalConfig struct {
	Host         string
	Port         int
	APIBaseURL   string
	APITimeout   time.Duration
	CookieSecure bool
	WorkspaceTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration. An empty DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN           string
	MaxOpenConns  int
	MaxIdleConns  int
	MigrationsDir string
}

// RedisConfig holds Redis configuration. An empty address keeps admin sessions in memory.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// AdminConfig holds admin authentication settings
type AdminConfig struct {
	Password     string
	PasswordHash string
	SessionTTL   time.Duration
}

// AIConfig holds the OpenAI-compatible chat completion settings
type AIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// UploadConfig holds object storage settings for admin uploads
type UploadConfig struct {
	Bucket        string
	PublicBaseURL string
	MaxBytes      int64
}

// SeedConfig holds the catalog seed location
type SeedConfig struct {
	File        string
	SampleCards bool
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval time.Duration
}

// Load reads an optional .env file and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(getEnv("ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 5045),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Portal: PortalConfig{
			Host:         getEnv("PORTAL_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("PORTAL_PORT", 3000),
			APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:5045"),
			APITimeout:   getEnvAsDuration("API_TIMEOUT", 45*time.Second),
			CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
			WorkspaceTTL: getEnvAsDuration("WORKSPACE_IDLE_TTL", 2*time.Hour),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MaxOpenConns:  getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 2),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Admin: AdminConfig{
			Password:     getEnv("ADMIN_PASSWORD", ""),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			SessionTTL:   getEnvAsDuration("ADMIN_SESSION_TTL", 12*time.Hour),
		},
		AI: AIConfig{
			APIKey:      getEnv("GROQ_API_KEY", ""),
			BaseURL:     getEnv("AI_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("AI_MODEL", "llama-3.3-70b-versatile"),
			Temperature: getEnvAsFloat("AI_TEMPERATURE", 0.7),
			MaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 1024),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 30*time.Second),
		},
		Upload: UploadConfig{
			Bucket:        getEnv("UPLOAD_BUCKET", ""),
			PublicBaseURL: getEnv("UPLOAD_PUBLIC_BASE_URL", ""),
			MaxBytes:      int64(getEnvAsInt("UPLOAD_MAX_MB", 500)) << 20,
		},
		Seed: SeedConfig{
			File:        getEnv("SEED_FILE", "./seed/catalog.yaml"),
			SampleCards: getEnvAsBool("SEED_SAMPLE_CARDS", true),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Portal.Port < 1 || c.Portal.Port > 65535 {
		return fmt.Errorf("invalid portal port: %d", c.Portal.Port)
	}

	if u, err := url.Parse(c.Portal.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.Portal.APIBaseURL)
	}

	if c.Admin.SessionTTL <= 0 {
		return fmt.Errorf("admin session TTL must be positive")
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("invalid AI temperature: %v", c.AI.Temperature)
	}

	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("AI max tokens must be positive")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload size limit must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
