// Package bridge is the duplex WebSocket bridge between the browser and
// the Gemini Live API: one handler invocation owns one session, its
// registry entry, and its upstream handle from accept to teardown.
package bridge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/seeme-ai/tutor-bridge/internal/observability"
	"github.com/seeme-ai/tutor-bridge/internal/presence"
	"github.com/seeme-ai/tutor-bridge/internal/sessionlog"
	"github.com/seeme-ai/tutor-bridge/internal/tutor"
	"github.com/seeme-ai/tutor-bridge/internal/upstream"
)

const teardownTimeout = 5 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	connector upstream.Connector
	registry  *Registry
	sessions  *sessionlog.Store
	presence  *presence.Store
	tools     *tutor.Toolset
	metrics   *observability.Metrics
	limit     time.Duration
	log       *slog.Logger
}

type HandlerConfig struct {
	// Connector may be nil when the service is missing its credential; the
	// handler then refuses sessions with a configuration error.
	Connector upstream.Connector
	Registry  *Registry
	Sessions  *sessionlog.Store
	Presence  *presence.Store
	Tools     *tutor.Toolset
	Metrics   *observability.Metrics
	Limit     time.Duration
	Log       *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Handler{
		connector: cfg.Connector,
		registry:  cfg.Registry,
		sessions:  cfg.Sessions,
		presence:  cfg.Presence,
		tools:     cfg.Tools,
		metrics:   cfg.Metrics,
		limit:     cfg.Limit,
		log:       cfg.Log.With("component", "bridge"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleSession)
}

// HandleSession runs one tutoring session end to end. Teardown bookkeeping
// happens exactly once on every exit path, including upstream connect
// failure, where no forwarding tasks ever start.
func (h *Handler) HandleSession(c echo.Context) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return err
	}

	conn := newConn(ws, h.log)
	defer conn.Close()

	sessionID := uuid.New().String()
	clientHash := anonymizeIP(c.RealIP())
	log := h.log.With("session_id", sessionID)
	log.Info("session accepted", "client", clientHash)

	if h.connector == nil {
		conn.TrySend(errorEnvelope(msgMisconfigured))
		return nil
	}

	startedAt := time.Now()

	// The request context dies with the hijacked HTTP request; the session
	// outlives it and is ended by its own race.
	ctx := context.Background()

	if err := h.sessions.StartSession(ctx, &sessionlog.Record{
		ID:         sessionID,
		StartedAt:  startedAt,
		ClientHash: clientHash,
	}); err != nil && !errors.Is(err, sessionlog.ErrDisabled) {
		log.Warn("failed to record session start", "error", err)
	}
	if err := h.presence.Track(ctx, presence.Session{
		ID:         sessionID,
		ClientHash: clientHash,
		StartedAt:  startedAt,
	}); err != nil && !errors.Is(err, presence.ErrDisabled) {
		log.Warn("failed to track presence", "error", err)
	}

	h.registry.Add(sessionID)
	h.metrics.ActiveSessions.Inc()

	reason := ReasonDisconnect
	us, err := h.connector.Connect(ctx, sessionID)
	if err != nil {
		log.Error("upstream connect failed", "error", err)
		conn.TrySend(errorEnvelope(msgCouldNotConnect))
		reason = ReasonUpstreamError
	} else {
		sess := &Session{
			id:       sessionID,
			conn:     conn,
			upstream: us,
			registry: h.registry,
			sessions: h.sessions,
			tools:    h.tools,
			metrics:  h.metrics,
			limit:    h.limit,
			log:      log,
		}
		reason = sess.run(ctx)
		if cerr := us.Close(); cerr != nil {
			log.Warn("upstream close failed", "error", cerr)
		}
	}

	h.registry.Remove(sessionID)
	h.metrics.ActiveSessions.Dec()
	h.metrics.SessionsEnded.WithLabelValues(string(reason)).Inc()

	duration := int(time.Since(startedAt).Seconds())
	tctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := h.presence.Remove(tctx, sessionID); err != nil && !errors.Is(err, presence.ErrDisabled) {
		log.Warn("failed to remove presence", "error", err)
	}
	if err := h.sessions.EndSession(tctx, sessionID, string(reason), duration); err != nil && !errors.Is(err, sessionlog.ErrDisabled) {
		log.Warn("failed to record session end", "error", err)
	}

	log.Info("session ended", "duration_seconds", duration, "reason", reason)
	return nil
}

// anonymizeIP hashes a client address before it is stored or logged; raw
// IPs never leave the handler.
func anonymizeIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:16]
}
