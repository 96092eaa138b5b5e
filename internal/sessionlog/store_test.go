package sessionlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	store := NewStore(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return store
}

func TestStore_DisabledWithoutDB(t *testing.T) {
	store := NewStore(nil)
	if store.Enabled() {
		t.Fatal("store without db should be disabled")
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("disabled migrate should be a no-op, got %v", err)
	}
	if err := store.StartSession(context.Background(), &Record{ID: "s1"}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if err := store.EndSession(context.Background(), "s1", ReasonDisconnect, 10); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestStore_SessionLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-42 * time.Second)
	err := store.StartSession(ctx, &Record{
		ID:         "sess-1",
		StartedAt:  started,
		ClientHash: "ab12cd34ef56ab12",
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	rec, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if rec.EndedReason != nil || rec.DurationSeconds != nil {
		t.Error("end fields should be unset on a fresh record")
	}
	if rec.ConsentGiven {
		t.Error("consent should default to false")
	}

	if err := store.MarkConsent(ctx, "sess-1", time.Now()); err != nil {
		t.Fatalf("mark consent: %v", err)
	}
	if err := store.EndSession(ctx, "sess-1", ReasonStudentEnded, 42); err != nil {
		t.Fatalf("end session: %v", err)
	}

	rec, err = store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session after end: %v", err)
	}
	if !rec.ConsentGiven || rec.ConsentAt == nil {
		t.Error("consent not recorded")
	}
	if rec.EndedReason == nil || *rec.EndedReason != ReasonStudentEnded {
		t.Errorf("unexpected ended reason: %v", rec.EndedReason)
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 42 {
		t.Errorf("unexpected duration: %v", rec.DurationSeconds)
	}
}

func TestStore_EndSessionUnknownID(t *testing.T) {
	store := setupTestStore(t)

	err := store.EndSession(context.Background(), "missing", ReasonError, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Progress(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.StartSession(ctx, &Record{ID: "sess-2", StartedAt: time.Now()}); err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := store.AddProgress(ctx, "sess-2", "long division", "struggling"); err != nil {
		t.Fatalf("add progress: %v", err)
	}
	if err := store.AddProgress(ctx, "sess-2", "long division", "mastered"); err != nil {
		t.Fatalf("add progress: %v", err)
	}

	entries, err := store.ListProgress(ctx, "sess-2")
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Status != "struggling" || entries[1].Status != "mastered" {
		t.Errorf("entries out of order: %+v", entries)
	}
}
