package common

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	LLM   LLMConfig
	Chunk ChunkConfig
	Run   RunConfig
}

// LLMConfig holds completion-service configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// ChunkConfig holds segmentation configuration
type ChunkConfig struct {
	Size int
}

// RunConfig holds processing-run configuration
type RunConfig struct {
	// MaxAttempts caps submissions per chunk across runs; 0 means no cap.
	MaxAttempts int
}

// LoadEnvFile loads a .env file from the working directory when one exists.
// Real environment variables always take precedence.
func LoadEnvFile() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file", "error", err)
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.3),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Chunk: ChunkConfig{
			Size: getEnvAsInt("CHUNK_SIZE", 2000),
		},
		Run: RunConfig{
			MaxAttempts: getEnvAsInt("MAX_ATTEMPTS", 0),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the configuration needed for a processing run.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Chunk.Size < 1 {
		return NewAppError("CONFIG_ERROR", "CHUNK_SIZE must be at least 1", ErrInvalidInput)
	}
	if c.Run.MaxAttempts < 0 {
		return NewAppError("CONFIG_ERROR", "MAX_ATTEMPTS must not be negative", ErrInvalidInput)
	}
	return nil
}
