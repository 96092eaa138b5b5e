package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seeme-ai/tutor-bridge/internal/observability"
	"github.com/seeme-ai/tutor-bridge/internal/sessionlog"
	"github.com/seeme-ai/tutor-bridge/internal/tutor"
	"github.com/seeme-ai/tutor-bridge/internal/upstream"
)

// Prometheus collectors register globally, so the whole package shares one
// instrument set.
var testMetrics = observability.NewMetrics("tutor_bridge_test")

type readFrame struct {
	data []byte
	err  error
}

// fakeWire is a scripted browser connection.
type fakeWire struct {
	reads chan readFrame

	mu       sync.Mutex
	writes   []ServerEnvelope
	writeErr error

	abort     chan struct{}
	abortOnce sync.Once
	closed    bool
}

func newFakeWire() *fakeWire {
	return &fakeWire{
		reads: make(chan readFrame, 32),
		abort: make(chan struct{}),
	}
}

func (f *fakeWire) queue(data string) {
	f.reads <- readFrame{data: []byte(data)}
}

func (f *fakeWire) queueEnvelope(t *testing.T, env ClientEnvelope) {
	t.Helper()
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	f.reads <- readFrame{data: data}
}

// disconnect makes the next read fail like an abrupt peer close.
func (f *fakeWire) disconnect() {
	f.reads <- readFrame{err: io.EOF}
}

func (f *fakeWire) ReadMessage() (int, []byte, error) {
	select {
	case fr := <-f.reads:
		if fr.err != nil {
			return 0, nil, fr.err
		}
		return websocket.TextMessage, fr.data, nil
	case <-f.abort:
		return 0, nil, errors.New("read deadline exceeded")
	}
}

func (f *fakeWire) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	var env ServerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	f.writes = append(f.writes, env)
	return nil
}

func (f *fakeWire) setWriteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}

func (f *fakeWire) sent() []ServerEnvelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ServerEnvelope, len(f.writes))
	copy(out, f.writes)
	return out
}

func (f *fakeWire) sentOfType(msgType string) []ServerEnvelope {
	var out []ServerEnvelope
	for _, env := range f.sent() {
		if env.Type == msgType {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeWire) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeWire) SetReadDeadline(t time.Time) error {
	if !t.After(time.Now()) {
		f.abortOnce.Do(func() { close(f.abort) })
	}
	return nil
}

func (f *fakeWire) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeUpstream is a scripted live session.
type fakeUpstream struct {
	events chan upstream.Event

	mu          sync.Mutex
	audio       [][]byte
	video       [][]byte
	toolResults []sentToolResult
	sendErr     error
	streamErr   error
	closeCount  int
	trace       []string
}

type sentToolResult struct {
	ID     string
	Name   string
	Result map[string]any
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{events: make(chan upstream.Event, 32)}
}

func (f *fakeUpstream) SendAudio(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.audio = append(f.audio, append([]byte(nil), pcm...))
	f.trace = append(f.trace, "audio_in")
	return nil
}

func (f *fakeUpstream) SendVideoFrame(jpeg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.video = append(f.video, append([]byte(nil), jpeg...))
	f.trace = append(f.trace, "video_in")
	return nil
}

func (f *fakeUpstream) SendToolResult(id, name string, result map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.toolResults = append(f.toolResults, sentToolResult{ID: id, Name: name, Result: result})
	f.trace = append(f.trace, "tool_result")
	return nil
}

func (f *fakeUpstream) Events() <-chan upstream.Event { return f.events }

func (f *fakeUpstream) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamErr
}

func (f *fakeUpstream) setStreamErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamErr = err
}

func (f *fakeUpstream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCount++
	return nil
}

func (f *fakeUpstream) sentAudio() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.audio))
	copy(out, f.audio)
	return out
}

func (f *fakeUpstream) sentToolResults() []sentToolResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentToolResult, len(f.toolResults))
	copy(out, f.toolResults)
	return out
}

const testSessionID = "sess-test"

func newTestSession(t *testing.T, w *fakeWire, us *fakeUpstream, limit time.Duration) *Session {
	t.Helper()
	registry := NewRegistry()
	registry.Add(testSessionID)
	sessions := sessionlog.NewStore(nil)
	return &Session{
		id:       testSessionID,
		conn:     newConn(w, slog.Default()),
		upstream: us,
		registry: registry,
		sessions: sessions,
		tools:    tutor.NewToolset(sessions, slog.Default()),
		metrics:  testMetrics,
		limit:    limit,
		log:      slog.Default(),
	}
}

// runSessionLoop runs one loop function with a cancellable context and
// returns its result, failing the test on timeout.
func runSessionLoop(t *testing.T, f func(context.Context) loopResult) loopResult {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan loopResult, 1)
	go func() { done <- f(ctx) }()

	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not finish in time")
		return loopResult{}
	}
}
