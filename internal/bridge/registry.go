package bridge

import (
	"sync"
	"time"
)

// latencyState is per-session scratch shared by the two forwarding loops:
// the inbound loop stamps incoming audio, the outbound loop reads and
// clears on the first response or an interruption.
type latencyState struct {
	lastAudioIn   time.Time
	awaitingFirst bool
}

// Registry is the process-wide map of live sessions. Entries are created
// at connect and removed at teardown; leaking one is a bug.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*latencyState
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*latencyState)}
}

func (r *Registry) Add(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &latencyState{}
}

func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// MarkAudioIn records that student audio just arrived and arms the
// first-response latency sample.
func (r *Registry) MarkAudioIn(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.sessions[sessionID]; ok {
		st.lastAudioIn = time.Now()
		st.awaitingFirst = true
	}
}

// TakeFirstResponse returns the response-start latency sample if one is
// armed, clearing the flag so each utterance is sampled once.
func (r *Registry) TakeFirstResponse(sessionID string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[sessionID]
	if !ok || !st.awaitingFirst || st.lastAudioIn.IsZero() {
		return 0, false
	}
	st.awaitingFirst = false
	return time.Since(st.lastAudioIn), true
}

// TakeInterrupt returns the interruption-stop latency sample if audio was
// in flight, clearing the first-response flag.
func (r *Registry) TakeInterrupt(sessionID string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[sessionID]
	if !ok || st.lastAudioIn.IsZero() {
		return 0, false
	}
	st.awaitingFirst = false
	return time.Since(st.lastAudioIn), true
}
