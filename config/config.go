package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreBadger   = "badger"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port         string
	AllowOrigins []string
	TempDir      string

	// Inference endpoint
	UpstreamBaseURL    string
	UpstreamCustomerID string
	UpstreamTokens     []string
	UpstreamTimeout    time.Duration
	TokenCooldown      time.Duration
	DefaultModel       string
	ModelsFile         string

	// Fallback references used when the reply carries no video URL
	PlaceholderNoMatchURL string
	PlaceholderNoReplyURL string

	// Media ingestion
	MaxUploadBytes  int64
	MaxPendingMedia int
	VideoPreviews   bool

	// Progress display windows
	SuccessResetDelay time.Duration
	FailureResetDelay time.Duration
	CancelResetDelay  time.Duration

	// Persistence
	StoreBackend   string
	DataDir        string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

// LoadConfig loads configuration from environment variables
func LoadConfig(envFiles ...string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		AllowOrigins: parseList(getEnv("ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		TempDir:      getEnv("TEMP_DIR", os.TempDir()),

		UpstreamBaseURL:    getEnv("UPSTREAM_BASE_URL", "https://oi-server.onrender.com/"),
		UpstreamCustomerID: getEnv("UPSTREAM_CUSTOMER_ID", "cus_T3KyPvWsMIRaBz"),
		UpstreamTokens:     parseList(getEnv("UPSTREAM_TOKENS", "xxx")),
		UpstreamTimeout:    getEnvAsDuration("UPSTREAM_TIMEOUT", 0),
		TokenCooldown:      getEnvAsDuration("TOKEN_COOLDOWN", 2*time.Minute),
		DefaultModel:       getEnv("DEFAULT_MODEL", "replicate/google/veo-3"),
		ModelsFile:         getEnv("MODELS_FILE", ""),

		PlaceholderNoMatchURL: getEnv("PLACEHOLDER_NO_MATCH_URL",
			"https://storage.googleapis.com/workspace-0f70711f-8b4e-4d94-86f1-2a93ccde5887/image/3ed71dcb-7d5b-4e2f-9a9d-98b4d37a33a6.png"),
		PlaceholderNoReplyURL: getEnv("PLACEHOLDER_NO_REPLY_URL",
			"https://storage.googleapis.com/workspace-0f70711f-8b4e-4d94-86f1-2a93ccde5887/image/dec50fff-508e-4781-807b-29224554cf9d.png"),

		MaxUploadBytes:  getEnvAsInt64("MAX_UPLOAD_BYTES", 100*1024*1024),
		MaxPendingMedia: getEnvAsInt("MAX_PENDING_MEDIA", 3),
		VideoPreviews:   getEnvAsBool("VIDEO_PREVIEWS", true),

		SuccessResetDelay: getEnvAsDuration("SUCCESS_RESET_DELAY", 3*time.Second),
		FailureResetDelay: getEnvAsDuration("FAILURE_RESET_DELAY", 5*time.Second),
		CancelResetDelay:  getEnvAsDuration("CANCEL_RESET_DELAY", 2*time.Second),

		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", StoreFile)),
		DataDir:        getEnv("DATA_DIR", "./data"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "aivideo"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.UpstreamBaseURL == "" {
		return errors.New("UPSTREAM_BASE_URL is required")
	}
	if len(c.UpstreamTokens) == 0 {
		return errors.New("UPSTREAM_TOKENS is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.MaxPendingMedia <= 0 {
		return errors.New("MAX_PENDING_MEDIA must be positive")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreFile, StoreBadger:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the %s store", c.StoreBackend)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseList(listStr string) []string {
	if listStr == "" {
		return []string{}
	}
	items := strings.Split(listStr, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, Upstream: %s, Tokens: %d, Store: %s, MaxUpload: %d, MaxPending: %d}",
		c.Port, c.UpstreamBaseURL, len(c.UpstreamTokens), c.StoreBackend, c.MaxUploadBytes, c.MaxPendingMedia)
}
