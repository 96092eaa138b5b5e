package bootstrap

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/seeme-ai/tutor-bridge/internal/bridge"
	"github.com/seeme-ai/tutor-bridge/internal/health"
	"github.com/seeme-ai/tutor-bridge/internal/presence"
	"github.com/seeme-ai/tutor-bridge/internal/upstream"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redisClient *redis.Client,
	registry *bridge.Registry,
	presenceStore *presence.Store,
	connector upstream.Connector,
) *health.Handler {
	return health.NewHandler(
		db,
		redisClient,
		registry,
		presenceStore,
		connector != nil,
		version,
	)
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
