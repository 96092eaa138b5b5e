package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/seeme-ai/tutor-bridge/internal/sessionlog"
)

const statsInterval = 10 * time.Second

// runInbound reads browser frames and forwards media to the upstream
// session. Malformed input is contained at the frame boundary: nothing the
// browser sends can terminate the loop except end_session or disconnecting.
func (s *Session) runInbound(ctx context.Context) loopResult {
	audioChunks := 0
	videoFrames := 0
	lastStats := time.Now()

	for {
		raw, err := s.conn.Read()
		if err != nil {
			if ctx.Err() != nil {
				return loopResult{task: taskInbound, outcome: outcomeCancelled}
			}
			if isClientGone(err) {
				s.log.Info("browser disconnected", "task", taskInbound)
				return loopResult{task: taskInbound, outcome: outcomeClientGone}
			}
			s.conn.TrySend(errorEnvelope(msgStreamInterrupted))
			return loopResult{task: taskInbound, outcome: outcomeFailed, err: err}
		}

		var env ClientEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.Warn("non-JSON message from browser, ignoring")
			continue
		}
		if env.Type == "" {
			s.log.Warn("browser message missing type, ignoring")
			continue
		}
		s.metrics.ClientFrames.WithLabelValues(env.Type).Inc()

		switch env.Type {
		case TypeEndSession:
			s.log.Info("student requested end_session")
			return loopResult{task: taskInbound, outcome: outcomeEndedByClient}

		case TypeConsentAck:
			s.log.Info("consent acknowledged")
			if err := s.sessions.MarkConsent(ctx, s.id, time.Now()); err != nil && !errors.Is(err, sessionlog.ErrDisabled) {
				s.log.Warn("failed to record consent", "error", err)
			}
			continue

		case TypeMicStop, TypeCameraOff:
			s.log.Info("control message from browser", "type", env.Type)
			continue
		}

		if env.Data == "" {
			s.log.Warn("browser message missing data, ignoring", "type", env.Type)
			continue
		}

		payload, err := base64.StdEncoding.DecodeString(env.Data)
		if err != nil {
			s.log.Warn("invalid base64 in browser message, ignoring frame",
				"type", env.Type, "len", len(env.Data))
			continue
		}

		switch env.Type {
		case TypeAudio:
			s.registry.MarkAudioIn(s.id)
			if err := s.upstream.SendAudio(payload); err != nil {
				s.conn.TrySend(errorEnvelope(msgStreamInterrupted))
				return loopResult{task: taskInbound, outcome: outcomeFailed, err: err}
			}
			audioChunks++

		case TypeVideo:
			if err := s.upstream.SendVideoFrame(payload); err != nil {
				s.conn.TrySend(errorEnvelope(msgStreamInterrupted))
				return loopResult{task: taskInbound, outcome: outcomeFailed, err: err}
			}
			videoFrames++

		default:
			s.log.Warn("unknown message type from browser", "type", env.Type)
		}

		if elapsed := time.Since(lastStats); elapsed >= statsInterval {
			s.log.Info("inbound stats",
				"window", elapsed.Round(time.Second),
				"audio_chunks", audioChunks,
				"audio_chunks_per_sec", float64(audioChunks)/elapsed.Seconds(),
				"video_frames", videoFrames)
			audioChunks = 0
			videoFrames = 0
			lastStats = time.Now()
		}
	}
}
