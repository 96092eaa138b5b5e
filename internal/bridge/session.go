package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seeme-ai/tutor-bridge/internal/observability"
	"github.com/seeme-ai/tutor-bridge/internal/sessionlog"
	"github.com/seeme-ai/tutor-bridge/internal/tutor"
	"github.com/seeme-ai/tutor-bridge/internal/upstream"
)

// EndReason classifies why a session stopped.
type EndReason string

const (
	ReasonDisconnect    EndReason = sessionlog.ReasonDisconnect
	ReasonLimit         EndReason = sessionlog.ReasonLimit
	ReasonStudentEnded  EndReason = sessionlog.ReasonStudentEnded
	ReasonError         EndReason = sessionlog.ReasonError
	ReasonUpstreamError EndReason = sessionlog.ReasonUpstreamError
)

// loopOutcome is how one of the three session tasks finished. Loops return
// these instead of threading control flow through errors.
type loopOutcome int

const (
	// outcomeClientGone: the browser connection closed under the loop.
	outcomeClientGone loopOutcome = iota
	// outcomeEndedByClient: the student sent end_session.
	outcomeEndedByClient
	// outcomeStreamDrained: the upstream event stream ended cleanly.
	outcomeStreamDrained
	// outcomeLimit: the session timer fired and the limit frame was delivered.
	outcomeLimit
	// outcomeCancelled: the loop wound down because a sibling finished first.
	outcomeCancelled
	// outcomeFailed: the loop hit an unrecoverable error.
	outcomeFailed
)

const (
	taskInbound  = "forward_to_gemini"
	taskOutbound = "forward_to_client"
	taskTimer    = "session_timer"
)

type loopResult struct {
	task    string
	outcome loopOutcome
	err     error
}

// Session owns one browser connection and its live upstream counterpart
// for the duration of a handler invocation.
type Session struct {
	id       string
	conn     *Conn
	upstream upstream.Session
	registry *Registry
	sessions *sessionlog.Store
	tools    *tutor.Toolset
	metrics  *observability.Metrics
	limit    time.Duration
	log      *slog.Logger
}

// run races the three session tasks: inbound forwarding, outbound
// forwarding, and the duration timer. The first one to finish decides the
// outcome; the others are cancelled and joined before the reason is
// computed. Cancellation is expected wind-down, never a failure.
func (s *Session) run(parent context.Context) EndReason {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	results := make(chan loopResult, 3)
	var wg sync.WaitGroup
	start := func(f func(context.Context) loopResult) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f(ctx)
		}()
	}
	start(s.runInbound)
	start(s.runOutbound)
	start(s.runTimer)

	first := <-results
	cancel()
	s.conn.abortRead()
	wg.Wait()
	close(results)

	reason := ReasonDisconnect
	s.applyResult(&reason, first)
	for r := range results {
		s.applyResult(&reason, r)
	}
	return reason
}

// applyResult folds one task result into the end reason. Results arrive in
// completion order and the first specific reason wins: a cancellation or a
// late generic error never overwrites what the deciding task reported.
func (s *Session) applyResult(reason *EndReason, r loopResult) {
	switch r.outcome {
	case outcomeLimit:
		if *reason == ReasonDisconnect {
			*reason = ReasonLimit
		}
	case outcomeEndedByClient:
		if *reason == ReasonDisconnect {
			*reason = ReasonStudentEnded
		}
	case outcomeFailed:
		s.log.Error("session task failed", "task", r.task, "error", r.err)
		if *reason == ReasonDisconnect {
			*reason = ReasonError
		}
	case outcomeCancelled:
		s.log.Debug("session task cancelled", "task", r.task)
	case outcomeClientGone, outcomeStreamDrained:
		// Normal terminations; the disconnect default stands.
	}
}

// runTimer enforces the hard session-duration cap. Only a delivered limit
// frame produces the limit outcome: if the socket is already gone, a
// sibling task owns the real end reason.
func (s *Session) runTimer(ctx context.Context) loopResult {
	timer := time.NewTimer(s.limit)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return loopResult{task: taskTimer, outcome: outcomeCancelled}
	case <-timer.C:
	}

	s.log.Info("session limit reached, notifying client", "limit", s.limit)
	if err := s.conn.Send(ServerEnvelope{Type: TypeSessionLimit}); err != nil {
		s.log.Warn("could not deliver session_limit to client", "error", err)
		return loopResult{task: taskTimer, outcome: outcomeCancelled}
	}
	return loopResult{task: taskTimer, outcome: outcomeLimit}
}
