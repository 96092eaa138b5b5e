package bootstrap

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/seeme-ai/tutor-bridge/internal/bridge"
	"github.com/seeme-ai/tutor-bridge/internal/observability"
	"github.com/seeme-ai/tutor-bridge/internal/presence"
	"github.com/seeme-ai/tutor-bridge/internal/sessionlog"
	"github.com/seeme-ai/tutor-bridge/internal/tutor"
	"github.com/seeme-ai/tutor-bridge/internal/upstream"
)

const metricsNamespace = "tutor_bridge"

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics(metricsNamespace)
}

func ProvideRegistry() *bridge.Registry {
	return bridge.NewRegistry()
}

func ProvideToolset(sessions *sessionlog.Store, logger *slog.Logger) *tutor.Toolset {
	return tutor.NewToolset(sessions, logger.With("component", "tools"))
}

func ProvideBridgeHandler(
	connector upstream.Connector,
	registry *bridge.Registry,
	sessions *sessionlog.Store,
	presenceStore *presence.Store,
	tools *tutor.Toolset,
	metrics *observability.Metrics,
	cfg *Config,
	logger *slog.Logger,
) *bridge.Handler {
	return bridge.NewHandler(bridge.HandlerConfig{
		Connector: connector,
		Registry:  registry,
		Sessions:  sessions,
		Presence:  presenceStore,
		Tools:     tools,
		Metrics:   metrics,
		Limit:     cfg.SessionLimit,
		Log:       logger,
	})
}

type RouteParams struct {
	fx.In

	BridgeHandler *bridge.Handler
	Config        *Config
}

func RegisterRoutes(e *echo.Echo, params RouteParams) {
	params.BridgeHandler.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(observability.MetricsHandler()))

	e.Static("/static", params.Config.StaticDir)
	e.GET("/", func(c echo.Context) error {
		if _, err := os.Stat(params.Config.IndexHTML); err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "index.html not found",
			})
		}
		return c.File(params.Config.IndexHTML)
	})
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideMetrics,
		ProvideRegistry,
		ProvideToolset,
		ProvideBridgeHandler,
	),
	fx.Invoke(RegisterRoutes),
)
