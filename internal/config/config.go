package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string
	// RedisURL enables the Redis-backed login limiter and monitor events.
	// Empty keeps everything in process.
	RedisURL  string
	JWTSecret string
	JWTExpiry time.Duration

	ExamTitle        string
	ExamDataB64      string
	ExamDataFile     string
	ExamPasswordB64  string
	ExamPasswordHash string

	QuestionTimeLimit time.Duration
	TimeoutGrace      time.Duration

	// LoginRateLimit is the number of login attempts allowed per IP per minute.
	LoginRateLimit int
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "pretty"),
		RedisURL:          getEnv("REDIS_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:         time.Duration(getEnvPositiveInt("JWT_EXPIRY_HOURS", 4)) * time.Hour,
		ExamTitle:         getEnv("EXAM_TITLE", "AWS CLF-C02 Practice Exam"),
		ExamDataB64:       getEnv("EXAM_DATA_B64", ""),
		ExamDataFile:      getEnv("EXAM_DATA_FILE", ""),
		ExamPasswordB64:   getEnv("EXAM_PASSWORD_B64", ""),
		ExamPasswordHash:  getEnv("EXAM_PASSWORD_HASH", ""),
		QuestionTimeLimit: time.Duration(getEnvPositiveInt("QUESTION_TIME_LIMIT_SECONDS", 120)) * time.Second,
		TimeoutGrace:      time.Duration(getEnvInt("TIMEOUT_GRACE_SECONDS", 2)) * time.Second,
		LoginRateLimit:    getEnvPositiveInt("LOGIN_RATE_LIMIT", 30),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvPositiveInt is getEnvInt for settings where zero or less would
// disable the server (every login throttled, every question already late).
func getEnvPositiveInt(key string, fallback int) int {
	if n := getEnvInt(key, fallback); n > 0 {
		return n
	}
	return fallback
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
