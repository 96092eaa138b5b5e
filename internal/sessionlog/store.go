// Package sessionlog persists session lifecycle records. Every write is
// best-effort from the session's point of view: callers log failures and
// carry on, a storage outage never ends a tutoring session.
package sessionlog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrDisabled is returned by every method when no database is configured.
// The service runs fine without one; only the session log is lost.
var ErrDisabled = errors.New("session logging disabled")

var ErrNotFound = errors.New("session record not found")

type Store struct {
	db *gorm.DB
}

// NewStore accepts a nil db, which yields a disabled store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Enabled() bool {
	return s.db != nil
}

func (s *Store) Migrate() error {
	if s.db == nil {
		return nil
	}
	return s.db.AutoMigrate(&Record{}, &Progress{})
}

// StartSession writes the write-once start record.
func (s *Store) StartSession(ctx context.Context, rec *Record) error {
	if s.db == nil {
		return ErrDisabled
	}
	return s.db.WithContext(ctx).Create(rec).Error
}

// MarkConsent records the student's consent acknowledgment.
func (s *Store) MarkConsent(ctx context.Context, sessionID string, at time.Time) error {
	if s.db == nil {
		return ErrDisabled
	}
	result := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", sessionID).Updates(map[string]any{
		"consent_given": true,
		"consent_at":    at,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EndSession records why and after how long the session stopped.
func (s *Store) EndSession(ctx context.Context, sessionID, reason string, durationSeconds int) error {
	if s.db == nil {
		return ErrDisabled
	}
	result := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", sessionID).Updates(map[string]any{
		"ended_reason":     reason,
		"duration_seconds": durationSeconds,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddProgress appends a learning-milestone sub-record.
func (s *Store) AddProgress(ctx context.Context, sessionID, topic, status string) error {
	if s.db == nil {
		return ErrDisabled
	}
	return s.db.WithContext(ctx).Create(&Progress{
		SessionID: sessionID,
		Topic:     topic,
		Status:    status,
	}).Error
}

// GetSession fetches one record, mainly for tests and ops tooling.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*Record, error) {
	if s.db == nil {
		return nil, ErrDisabled
	}
	var rec Record
	err := s.db.WithContext(ctx).Where("id = ?", sessionID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecentSessions returns the newest session records, most recent first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]*Record, error) {
	if s.db == nil {
		return nil, ErrDisabled
	}
	var recs []*Record
	err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// ListProgress returns milestone sub-records for one session in write order.
func (s *Store) ListProgress(ctx context.Context, sessionID string) ([]*Progress, error) {
	if s.db == nil {
		return nil, ErrDisabled
	}
	var entries []*Progress
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&entries).Error
	return entries, err
}
