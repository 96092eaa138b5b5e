// Package presence tracks which tutoring sessions are live right now.
// Each session is a small TTL'd JSON document in redis, so health endpoints
// and other replicas can see activity without touching the session itself.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL exceeds the hard session limit so an entry only ever expires after
// a crashed replica failed to remove it.
const sessionTTL = 25 * time.Minute

var ErrDisabled = errors.New("presence tracking disabled")

type Session struct {
	ID         string    `json:"id"`
	ClientHash string    `json:"client_hash"`
	StartedAt  time.Time `json:"started_at"`
}

func (s *Session) redisKey() string {
	return "presence:" + s.ID
}

type Store struct {
	redis *redis.Client
}

// NewStore accepts a nil client, which yields a disabled store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) Enabled() bool {
	return s.redis != nil
}

// Track marks a session live.
func (s *Store) Track(ctx context.Context, sess Session) error {
	if s.redis == nil {
		return ErrDisabled
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sess.redisKey(), data, sessionTTL).Err()
}

// Remove drops a session's presence document at teardown.
func (s *Store) Remove(ctx context.Context, sessionID string) error {
	if s.redis == nil {
		return ErrDisabled
	}
	return s.redis.Del(ctx, "presence:"+sessionID).Err()
}

// ActiveCount reports how many sessions are live across all replicas.
func (s *Store) ActiveCount(ctx context.Context) (int, error) {
	if s.redis == nil {
		return 0, ErrDisabled
	}
	keys, err := s.redis.Keys(ctx, "presence:*").Result()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// ActiveSessions lists the live session documents.
func (s *Store) ActiveSessions(ctx context.Context) ([]*Session, error) {
	if s.redis == nil {
		return nil, ErrDisabled
	}
	keys, err := s.redis.Keys(ctx, "presence:*").Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(keys))
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		sessions = append(sessions, &sess)
	}
	return sessions, nil
}
