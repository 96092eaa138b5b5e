// Package upstream is the boundary adapter for the Gemini Live API.
//
// It owns the only code that touches SDK types: server messages are decoded
// into a closed Event set at the edge, and the bridge talks to the session
// through the small Session interface below.
package upstream

import "context"

// Session is one open bidirectional live session.
//
// Inbound calls (SendAudio, SendVideoFrame, SendToolResult) and outbound
// consumption (Events) are partitioned by direction: the bridge never issues
// concurrent calls on the same side. Events is closed when the upstream
// stream ends for any reason; Err reports the terminal stream error after
// that, or nil if the stream drained cleanly. Close releases the session and
// is safe to call more than once.
type Session interface {
	// SendAudio forwards one chunk of 16-bit 16 kHz mono PCM.
	SendAudio(pcm []byte) error
	// SendVideoFrame forwards one JPEG-encoded camera frame.
	SendVideoFrame(jpeg []byte) error
	// SendToolResult answers a tool call so the model can continue the turn.
	SendToolResult(id, name string, result map[string]any) error

	Events() <-chan Event
	Err() error
	Close() error
}

// Connector opens live sessions. Production uses the genai-backed
// connector; tests substitute their own.
type Connector interface {
	Connect(ctx context.Context, sessionID string) (Session, error)
}
