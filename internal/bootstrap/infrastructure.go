package bootstrap

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seeme-ai/tutor-bridge/internal/tutor"
	"github.com/seeme-ai/tutor-bridge/internal/upstream"
)

// ProvideRedisClient returns nil when redis is not configured; presence
// tracking is then disabled and everything else keeps working.
func ProvideRedisClient(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// ProvideDatabase returns a nil handle when no DSN is configured; the
// session log is then disabled and sessions run unrecorded.
func ProvideDatabase(cfg *Config) (*gorm.DB, error) {
	if cfg.DatabaseDSN == "" {
		return nil, nil
	}
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// ProvideConnector returns a nil connector when the API key is missing.
// The service still starts so health endpoints can report the problem,
// and the bridge refuses sessions with a configuration error.
func ProvideConnector(cfg *Config, log *slog.Logger) (upstream.Connector, error) {
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set, sessions will be refused")
		return nil, nil
	}
	connector, err := upstream.NewGeminiConnector(context.Background(), upstream.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		Live:   tutor.LiveConfig(),
	}, log)
	if err != nil {
		return nil, err
	}
	return connector, nil
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideRedisClient,
		ProvideDatabase,
		ProvideConnector,
	),
)
