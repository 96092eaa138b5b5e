package bootstrap

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/seeme-ai/tutor-bridge/internal/tutor"
)

// DefaultSessionLimit is the hard cap on one tutoring session.
const DefaultSessionLimit = 20 * time.Minute

type Config struct {
	ServerAddr string

	GeminiAPIKey string
	GeminiModel  string
	SessionLimit time.Duration

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	StaticDir string
	IndexHTML string
}

// LoadConfig reads the environment, with .env as a local-dev convenience.
// GEMINI_API_KEY is the only setting without a workable default: without it
// the service comes up but refuses sessions.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", tutor.Model),
		SessionLimit: getEnvDuration("SESSION_LIMIT", DefaultSessionLimit),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		StaticDir: getEnv("STATIC_DIR", "./static"),
		IndexHTML: getEnv("INDEX_HTML", "./static/index.html"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration syntax ("15m") or a bare number of
// seconds, the format the browser client's config uses.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
