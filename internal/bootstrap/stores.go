package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/seeme-ai/tutor-bridge/internal/presence"
	"github.com/seeme-ai/tutor-bridge/internal/sessionlog"
)

func ProvideSessionLogStore(db *gorm.DB) *sessionlog.Store {
	return sessionlog.NewStore(db)
}

func ProvidePresenceStore(redisClient *redis.Client) *presence.Store {
	return presence.NewStore(redisClient)
}

func RunMigrations(sessions *sessionlog.Store) error {
	return sessions.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideSessionLogStore,
		ProvidePresenceStore,
	),
	fx.Invoke(RunMigrations),
)
