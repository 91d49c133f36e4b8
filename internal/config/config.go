package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Metrics API
	MetricsAPIURL string
	MetricsAPIKey string

	// LLM service (OpenAI-compatible Responses API)
	LLMBaseURL  string
	LLMAPIKey   string
	LLMFolderID string
	LLMModel    string

	// Workflow defaults
	DefaultReasoningEffort string
	EnableAPISubmission    bool
	EnableLLMAnalysis      bool
	RequestTimeout         time.Duration
	HealthTimeout          time.Duration

	// Storage
	StorageType string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// Cache
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		MetricsAPIURL:          getEnv("METRICS_API_URL", "http://localhost:8080"),
		MetricsAPIKey:          getEnv("METRICS_API_KEY", ""),
		LLMBaseURL:             getEnv("LLM_BASE_URL", "https://rest-assistant.api.cloud.yandex.net/v1"),
		LLMAPIKey:              getEnv("LLM_API_KEY", ""),
		LLMFolderID:            getEnv("LLM_FOLDER_ID", ""),
		LLMModel:               getEnv("LLM_MODEL", "qwen3-235b-a22b-fp8"),
		DefaultReasoningEffort: getEnv("DEFAULT_REASONING_EFFORT", "medium"),
		EnableAPISubmission:    getEnvBool("ENABLE_API_SUBMISSION", true),
		EnableLLMAnalysis:      getEnvBool("ENABLE_LLM_ANALYSIS", true),
		RequestTimeout:         getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		HealthTimeout:          getEnvDuration("HEALTH_TIMEOUT", 5*time.Second),
		StorageType:            getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:             getEnv("SQLITE_PATH", "./metrics.db"),
		PostgresURL:            getEnv("POSTGRES_URL", ""),
		RedisAddr:              getEnv("REDIS_ADDR", ""),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		CacheTTL:               getEnvDuration("CACHE_TTL", time.Hour),
		APIPort:                getEnv("API_PORT", "8080"),
		APIHost:                getEnv("API_HOST", "localhost"),
		APIEndpoint:            getEnv("API_ENDPOINT", "http://localhost:8080"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration returns a duration environment variable (in seconds when the
// value is a bare number) or a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MetricsAPIURL == "" {
		return &ConfigError{Field: "METRICS_API_URL", Message: "metrics API URL is required"}
	}
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	if c.EnableLLMAnalysis && (c.LLMAPIKey == "" || c.LLMFolderID == "") {
		return &ConfigError{Field: "LLM_API_KEY", Message: "LLM API key and folder ID are required when LLM analysis is enabled"}
	}
	switch c.DefaultReasoningEffort {
	case "low", "medium", "high":
	default:
		return &ConfigError{Field: "DEFAULT_REASONING_EFFORT", Message: "must be 'low', 'medium' or 'high'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
