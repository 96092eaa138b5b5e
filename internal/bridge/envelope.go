package bridge

// Browser → server message types.
const (
	TypeAudio      = "audio"
	TypeVideo      = "video"
	TypeEndSession = "end_session"
	TypeConsentAck = "consent_ack"
	TypeMicStop    = "mic_stop"
	TypeCameraOff  = "camera_off"
)

// Server → browser message types. TypeAudio and TypeError are shared with
// the inbound direction.
const (
	TypeText         = "text"
	TypeTurnComplete = "turn_complete"
	TypeInterrupted  = "interrupted"
	TypeSessionLimit = "session_limit"
	TypeError        = "error"
)

// ClientEnvelope is the JSON wrapper on frames from the browser. Data is
// base64 and required for audio/video, absent for control types.
type ClientEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// ServerEnvelope is the JSON wrapper on frames to the browser. Audio data
// is base64-encoded 16-bit 24 kHz PCM; error data is a user-facing message.
type ServerEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

func errorEnvelope(message string) ServerEnvelope {
	return ServerEnvelope{Type: TypeError, Data: message}
}

// User-facing error strings. Internal detail stays in the server log.
const (
	msgMisconfigured     = "Server misconfiguration: API key not set."
	msgCouldNotConnect   = "Could not connect to the tutoring service. Please try again in a moment."
	msgStreamInterrupted = "The tutor connection was interrupted. Please refresh to start a new session."
)
