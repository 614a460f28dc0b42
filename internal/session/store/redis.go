package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"payment-portal/backend/internal/session/domain"
)

const keyPrefix = "sess:"

// RedisStore keeps session records in Redis with a sliding TTL. Redis evicts
// keys at the TTL boundary, so an expired session can never be read back.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a RedisStore using the given client and inactivity TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Create allocates a new record under a fresh random identifier.
func (s *RedisStore) Create(ctx context.Context, principalID, role string) (*domain.Record, error) {
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := &domain.Record{
		ID:           id,
		PrincipalID:  principalID,
		Role:         role,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := s.write(ctx, rec, s.ttl); err != nil {
		return nil, err
	}
	return rec, nil
}

// Regenerate deletes oldID and writes the fresh record in one transactional
// pipeline, so no concurrent request observes both identifiers valid.
func (s *RedisStore) Regenerate(ctx context.Context, oldID, principalID, role string) (*domain.Record, error) {
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := &domain.Record{
		ID:           id,
		PrincipalID:  principalID,
		Role:         role,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	pipe := s.client.TxPipeline()
	if oldID != "" {
		pipe.Del(ctx, keyPrefix+oldID)
	}
	pipe.Set(ctx, keyPrefix+id, payload, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// Read returns the record for id, or (nil, nil) when the key is absent or
// already evicted.
func (s *RedisStore) Read(ctx context.Context, id string) (*domain.Record, error) {
	if id == "" {
		return nil, nil
	}
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var rec domain.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		// A corrupt record is unusable; treat it as absent.
		return nil, nil
	}
	return &rec, nil
}

// Touch refreshes the sliding expiry and the last-activity timestamp.
// Touching an absent id is a no-op.
func (s *RedisStore) Touch(ctx context.Context, id string) error {
	rec, err := s.Read(ctx, id)
	if err != nil || rec == nil {
		return err
	}
	rec.LastActiveAt = time.Now().UTC()
	return s.write(ctx, rec, s.ttl)
}

// Destroy removes the record; idempotent.
func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, keyPrefix+id).Err()
}

// SetCSRFToken stores the anti-forgery token on the record, preserving the
// key's remaining TTL.
func (s *RedisStore) SetCSRFToken(ctx context.Context, id, token string) error {
	rec, err := s.Read(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return errors.New("session store: no such session")
	}
	rec.CSRFToken = token
	return s.write(ctx, rec, redis.KeepTTL)
}

func (s *RedisStore) write(ctx context.Context, rec *domain.Record, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+rec.ID, payload, ttl).Err()
}

// Ping reports whether the backing Redis is reachable; used by readiness checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
