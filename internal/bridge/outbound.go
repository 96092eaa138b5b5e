package bridge

import (
	"context"
	"encoding/base64"

	"github.com/seeme-ai/tutor-bridge/internal/upstream"
)

// runOutbound consumes upstream events and re-encodes them for the
// browser. Events are forwarded in production order; a tool call suspends
// consumption until its result has gone back to the model.
func (s *Session) runOutbound(ctx context.Context) loopResult {
	audioChunks := 0
	turns := 0

	for {
		select {
		case <-ctx.Done():
			return loopResult{task: taskOutbound, outcome: outcomeCancelled}

		case ev, ok := <-s.upstream.Events():
			if !ok {
				if err := s.upstream.Err(); err != nil {
					s.conn.TrySend(errorEnvelope(msgStreamInterrupted))
					return loopResult{task: taskOutbound, outcome: outcomeFailed, err: err}
				}
				s.log.Info("upstream event stream ended")
				return loopResult{task: taskOutbound, outcome: outcomeStreamDrained}
			}

			s.metrics.UpstreamEvents.WithLabelValues(ev.Kind.String()).Inc()

			switch ev.Kind {
			case upstream.KindAudio:
				if delta, ok := s.registry.TakeFirstResponse(s.id); ok {
					s.log.Info("response latency", "response_start_ms", delta.Milliseconds())
					s.metrics.ObserveFirstAudioLatency(delta)
				}
				encoded := base64.StdEncoding.EncodeToString(ev.Audio)
				if err := s.conn.Send(ServerEnvelope{Type: TypeAudio, Data: encoded}); err != nil {
					return s.outboundSendResult(ctx, err)
				}
				audioChunks++

			case upstream.KindText:
				s.log.Info("tutor transcript", "text", ev.Text)
				if err := s.conn.Send(ServerEnvelope{Type: TypeText, Data: ev.Text}); err != nil {
					return s.outboundSendResult(ctx, err)
				}

			case upstream.KindInputTranscript:
				s.log.Info("student transcript", "text", ev.Text)

			case upstream.KindToolCall:
				for _, call := range ev.Calls {
					s.log.Info("tool call from model", "tool", call.Name, "call_id", call.ID)
					result := s.tools.Dispatch(ctx, s.id, call)
					if err := s.upstream.SendToolResult(call.ID, call.Name, result); err != nil {
						s.conn.TrySend(errorEnvelope(msgStreamInterrupted))
						return loopResult{task: taskOutbound, outcome: outcomeFailed, err: err}
					}
				}

			case upstream.KindToolCancel:
				s.log.Info("tool calls cancelled by model", "call_ids", ev.CancelledIDs)

			case upstream.KindInterrupted:
				if delta, ok := s.registry.TakeInterrupt(s.id); ok {
					s.log.Info("interruption latency", "interruption_stop_ms", delta.Milliseconds())
					s.metrics.ObserveInterruptLatency(delta)
				}
				if err := s.conn.Send(ServerEnvelope{Type: TypeInterrupted}); err != nil {
					return s.outboundSendResult(ctx, err)
				}
				s.log.Info("interrupted by student", "audio_chunks_in_turn", audioChunks)
				audioChunks = 0

			case upstream.KindTurnComplete:
				turns++
				if err := s.conn.Send(ServerEnvelope{Type: TypeTurnComplete}); err != nil {
					return s.outboundSendResult(ctx, err)
				}
				s.log.Info("turn complete", "turn", turns, "audio_chunks", audioChunks)
				audioChunks = 0

			default:
				s.log.Warn("unrecognized upstream event", "kind", ev.Kind)
			}
		}
	}
}

// outboundSendResult classifies a failed write to the browser: during
// wind-down it is a cancellation, a closed socket is a disconnect, and
// anything else is a genuine failure.
func (s *Session) outboundSendResult(ctx context.Context, err error) loopResult {
	if ctx.Err() != nil {
		return loopResult{task: taskOutbound, outcome: outcomeCancelled}
	}
	if isClientGone(err) {
		s.log.Info("browser disconnected", "task", taskOutbound)
		return loopResult{task: taskOutbound, outcome: outcomeClientGone}
	}
	return loopResult{task: taskOutbound, outcome: outcomeFailed, err: err}
}
