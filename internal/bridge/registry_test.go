package bridge

import (
	"testing"
	"time"
)

func TestRegistryFirstResponseSampledOncePerUtterance(t *testing.T) {
	r := NewRegistry()
	r.Add("s1")

	if _, ok := r.TakeFirstResponse("s1"); ok {
		t.Fatal("expected no sample before any audio arrived")
	}

	r.MarkAudioIn("s1")
	delta, ok := r.TakeFirstResponse("s1")
	if !ok {
		t.Fatal("expected a sample after audio arrived")
	}
	if delta < 0 || delta > time.Second {
		t.Fatalf("implausible latency sample: %v", delta)
	}

	if _, ok := r.TakeFirstResponse("s1"); ok {
		t.Fatal("sample should be cleared after the first take")
	}

	// The next utterance re-arms it.
	r.MarkAudioIn("s1")
	if _, ok := r.TakeFirstResponse("s1"); !ok {
		t.Fatal("expected a fresh sample after new audio")
	}
}

func TestRegistryInterruptRequiresAudioInFlight(t *testing.T) {
	r := NewRegistry()
	r.Add("s1")

	if _, ok := r.TakeInterrupt("s1"); ok {
		t.Fatal("expected no interrupt sample before any audio")
	}

	r.MarkAudioIn("s1")
	if _, ok := r.TakeInterrupt("s1"); !ok {
		t.Fatal("expected an interrupt sample with audio in flight")
	}

	// An interruption consumes the pending first-response sample too.
	if _, ok := r.TakeFirstResponse("s1"); ok {
		t.Fatal("interrupt should clear the first-response flag")
	}
}

func TestRegistryUnknownSession(t *testing.T) {
	r := NewRegistry()

	r.MarkAudioIn("ghost")
	if _, ok := r.TakeFirstResponse("ghost"); ok {
		t.Fatal("unknown session must not produce samples")
	}
	if _, ok := r.TakeInterrupt("ghost"); ok {
		t.Fatal("unknown session must not produce samples")
	}
}

func TestRegistryAddRemoveLen(t *testing.T) {
	r := NewRegistry()
	r.Add("a")
	r.Add("b")
	if got := r.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	r.Remove("a")
	r.Remove("a")
	if got := r.Len(); got != 1 {
		t.Fatalf("Len after remove = %d, want 1", got)
	}
}
