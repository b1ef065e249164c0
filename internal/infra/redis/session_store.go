// Package redis persists browse session state in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/session"
)

// SessionStore implements session.StateStore. Every write renews the TTL, so
// idle sessions expire on their own.
type SessionStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	ttl       time.Duration
}

// NewSessionStore creates a SessionStore. keyPrefix namespaces all keys.
func NewSessionStore(client *redis.Client, logger *zap.Logger, keyPrefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Save stores rec under id.
func (s *SessionStore) Save(ctx context.Context, id string, rec session.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}

	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		s.logger.Error("session save failed",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return err
	}

	s.logger.Debug("session saved",
		zap.String("session_id", id),
		zap.Int("bytes", len(data)),
	)

	return nil
}

// Load returns the record stored under id. A missing key is not an error.
func (s *SessionStore) Load(ctx context.Context, id string) (session.Record, bool, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Record{}, false, nil
	}
	if err != nil {
		s.logger.Error("session load failed",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return session.Record{}, false, err
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("discarding unreadable session",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return session.Record{}, false, nil
	}
	rec.State.Normalize()

	return rec, true, nil
}

// Delete removes id. Deleting a missing key is a no-op.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		s.logger.Error("session delete failed",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// Ping verifies the Redis connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) key(id string) string {
	return s.keyPrefix + ":session:" + id
}
