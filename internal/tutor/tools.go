package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seeme-ai/tutor-bridge/internal/sessionlog"
	"github.com/seeme-ai/tutor-bridge/internal/upstream"
)

// Handler resolves one tool call. The returned map is sent back to the
// model verbatim.
type Handler func(ctx context.Context, sessionID string, args map[string]any) (map[string]any, error)

// Toolset dispatches the model's tool calls. Failures never escape as
// errors: the model receives an error-result map and the session goes on.
type Toolset struct {
	handlers map[string]Handler
	log      *slog.Logger
}

func NewToolset(sessions *sessionlog.Store, log *slog.Logger) *Toolset {
	if log == nil {
		log = slog.Default()
	}
	t := &Toolset{
		handlers: make(map[string]Handler),
		log:      log.With("component", "toolset"),
	}
	t.Register(ToolLogProgress, logProgressHandler(sessions))
	return t
}

func (t *Toolset) Register(name string, h Handler) {
	t.handlers[name] = h
}

// Dispatch resolves a single call and always produces a result map.
func (t *Toolset) Dispatch(ctx context.Context, sessionID string, call upstream.ToolCall) map[string]any {
	h, ok := t.handlers[call.Name]
	if !ok {
		t.log.Warn("unknown tool requested", "session_id", sessionID, "tool", call.Name)
		return map[string]any{
			"result": "error",
			"detail": fmt.Sprintf("unknown tool %q", call.Name),
		}
	}

	result, err := h(ctx, sessionID, call.Args)
	if err != nil {
		t.log.Error("tool handler failed", "session_id", sessionID, "tool", call.Name, "error", err)
		return map[string]any{
			"result": "error",
			"detail": "The request could not be completed; please continue the session normally.",
		}
	}
	return result
}

func logProgressHandler(sessions *sessionlog.Store) Handler {
	return func(ctx context.Context, sessionID string, args map[string]any) (map[string]any, error) {
		topic, _ := args["topic"].(string)
		status, _ := args["status"].(string)
		if topic == "" || status == "" {
			return nil, fmt.Errorf("log_progress requires topic and status, got %v", args)
		}

		err := sessions.AddProgress(ctx, sessionID, topic, status)
		if err != nil && !errors.Is(err, sessionlog.ErrDisabled) {
			return nil, fmt.Errorf("record progress: %w", err)
		}

		return map[string]any{
			"result": "saved",
			"topic":  topic,
			"status": status,
		}, nil
	}
}
