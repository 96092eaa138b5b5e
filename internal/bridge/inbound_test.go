package bridge

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestInboundForwardsAudioAndStopsOnEndSession(t *testing.T) {
	w := newFakeWire()
	us := newFakeUpstream()
	s := newTestSession(t, w, us, time.Minute)

	w.queueEnvelope(t, ClientEnvelope{Type: TypeAudio, Data: "AAEC"})
	w.queueEnvelope(t, ClientEnvelope{Type: TypeEndSession})

	r := runSessionLoop(t, s.runInbound)
	if r.outcome != outcomeEndedByClient {
		t.Fatalf("outcome = %v, want endedByClient", r.outcome)
	}

	audio := us.sentAudio()
	if len(audio) != 1 {
		t.Fatalf("forwarded %d audio chunks, want 1", len(audio))
	}
	if !bytes.Equal(audio[0], []byte{0x00, 0x01, 0x02}) {
		t.Fatalf("forwarded bytes = %v, want [0 1 2]", audio[0])
	}
	if got := w.sentOfType(TypeError); len(got) != 0 {
		t.Fatalf("sent %d error frames, want 0", len(got))
	}
}

func TestInboundForwardsVideoFrames(t *testing.T) {
	w := newFakeWire()
	us := newFakeUpstream()
	s := newTestSession(t, w, us, time.Minute)

	w.queueEnvelope(t, ClientEnvelope{Type: TypeVideo, Data: "/9j/AA=="})
	w.queueEnvelope(t, ClientEnvelope{Type: TypeEndSession})

	r := runSessionLoop(t, s.runInbound)
	if r.outcome != outcomeEndedByClient {
		t.Fatalf("outcome = %v, want endedByClient", r.outcome)
	}

	us.mu.Lock()
	defer us.mu.Unlock()
	if len(us.video) != 1 {
		t.Fatalf("forwarded %d video frames, want 1", len(us.video))
	}
}

func TestInboundSkipsMalformedFramesSilently(t *testing.T) {
	w := newFakeWire()
	us := newFakeUpstream()
	s := newTestSession(t, w, us, time.Minute)

	w.queue("not json at all")
	w.queue(`{"data":"AAEC"}`) // missing type
	w.queueEnvelope(t, ClientEnvelope{Type: TypeAudio}) // missing data
	w.queueEnvelope(t, ClientEnvelope{Type: TypeAudio, Data: "!!not-b64!!"})
	w.queueEnvelope(t, ClientEnvelope{Type: "telepathy", Data: "AAEC"}) // unknown type
	w.queueEnvelope(t, ClientEnvelope{Type: TypeAudio, Data: "AAEC"})
	w.queueEnvelope(t, ClientEnvelope{Type: TypeEndSession})

	r := runSessionLoop(t, s.runInbound)
	if r.outcome != outcomeEndedByClient {
		t.Fatalf("outcome = %v, want endedByClient", r.outcome)
	}

	if got := len(us.sentAudio()); got != 1 {
		t.Fatalf("forwarded %d audio chunks, want only the valid one", got)
	}
	if got := w.sent(); len(got) != 0 {
		t.Fatalf("malformed frames produced %d responses, want none: %+v", len(got), got)
	}
}

func TestInboundControlMessagesAreAcknowledgedInPlace(t *testing.T) {
	w := newFakeWire()
	us := newFakeUpstream()
	s := newTestSession(t, w, us, time.Minute)

	w.queueEnvelope(t, ClientEnvelope{Type: TypeConsentAck})
	w.queueEnvelope(t, ClientEnvelope{Type: TypeMicStop})
	w.queueEnvelope(t, ClientEnvelope{Type: TypeCameraOff})
	w.queueEnvelope(t, ClientEnvelope{Type: TypeEndSession})

	r := runSessionLoop(t, s.runInbound)
	if r.outcome != outcomeEndedByClient {
		t.Fatalf("outcome = %v, want endedByClient", r.outcome)
	}
	if got := len(us.sentAudio()); got != 0 {
		t.Fatalf("control messages forwarded %d chunks upstream, want 0", got)
	}
}

func TestInboundClientDisconnect(t *testing.T) {
	w := newFakeWire()
	us := newFakeUpstream()
	s := newTestSession(t, w, us, time.Minute)

	w.disconnect()

	r := runSessionLoop(t, s.runInbound)
	if r.outcome != outcomeClientGone {
		t.Fatalf("outcome = %v, want clientGone", r.outcome)
	}
	if got := w.sentOfType(TypeError); len(got) != 0 {
		t.Fatalf("disconnect produced %d error frames, want 0", len(got))
	}
}

func TestInboundUpstreamSendFailure(t *testing.T) {
	w := newFakeWire()
	us := newFakeUpstream()
	us.sendErr = errors.New("live session torn down")
	s := newTestSession(t, w, us, time.Minute)

	w.queueEnvelope(t, ClientEnvelope{Type: TypeAudio, Data: "AAEC"})

	r := runSessionLoop(t, s.runInbound)
	if r.outcome != outcomeFailed {
		t.Fatalf("outcome = %v, want failed", r.outcome)
	}
	frames := w.sentOfType(TypeError)
	if len(frames) != 1 {
		t.Fatalf("sent %d error frames, want 1", len(frames))
	}
	if frames[0].Data != msgStreamInterrupted {
		t.Fatalf("error message = %q, want %q", frames[0].Data, msgStreamInterrupted)
	}
}
