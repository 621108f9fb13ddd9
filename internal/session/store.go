package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/medmarket-admin/internal/domain"
)

// Storage field names, stable across reloads. The credential and profile
// records are cleared together on logout; the admin profile record is
// written by a different part of the login flow and deliberately survives
// ClearToken.
const (
	fieldToken        = "auth_token"
	fieldProfile      = "auth_user"
	fieldAdminProfile = "admin_profile"
)

// Store is the per-browser-session key-value persistence behind the auth
// core. Absence is reported as an empty value, not an error; a session
// without a credential is simply not authenticated.
type Store interface {
	SetToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, error)
	// ClearToken removes the credential and the session profile. It is
	// idempotent and leaves the admin profile record untouched.
	ClearToken(ctx context.Context) error

	SetProfile(ctx context.Context, profile *domain.SessionProfile) error
	Profile(ctx context.Context) (*domain.SessionProfile, error)

	SetAdminProfile(ctx context.Context, blob string) error
	AdminProfile(ctx context.Context) (string, error)
}

// redisStore persists session fields under session:<id>:<field> keys.
type redisStore struct {
	client    *redis.Client
	sessionID string
	ttl       time.Duration
}

// NewRedisStore returns a Store scoped to the given browser session ID.
func NewRedisStore(client *redis.Client, sessionID string, ttl time.Duration) Store {
	return &redisStore{client: client, sessionID: sessionID, ttl: ttl}
}

func (s *redisStore) key(field string) string {
	return "session:" + s.sessionID + ":" + field
}

func (s *redisStore) SetToken(ctx context.Context, token string) error {
	return s.client.Set(ctx, s.key(fieldToken), token, s.ttl).Err()
}

func (s *redisStore) Token(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key(fieldToken)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *redisStore) ClearToken(ctx context.Context) error {
	return s.client.Del(ctx, s.key(fieldToken), s.key(fieldProfile)).Err()
}

func (s *redisStore) SetProfile(ctx context.Context, profile *domain.SessionProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(fieldProfile), raw, s.ttl).Err()
}

func (s *redisStore) Profile(ctx context.Context) (*domain.SessionProfile, error) {
	val, err := s.client.Get(ctx, s.key(fieldProfile)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var profile domain.SessionProfile
	if err := json.Unmarshal([]byte(val), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *redisStore) SetAdminProfile(ctx context.Context, blob string) error {
	return s.client.Set(ctx, s.key(fieldAdminProfile), blob, s.ttl).Err()
}

func (s *redisStore) AdminProfile(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key(fieldAdminProfile)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// memoryStore is the in-process fallback used by tests and by deployments
// without Redis.
type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{values: make(map[string]string)}
}

func (s *memoryStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[fieldToken] = token
	return nil
}

func (s *memoryStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[fieldToken], nil
}

func (s *memoryStore) ClearToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, fieldToken)
	delete(s.values, fieldProfile)
	return nil
}

func (s *memoryStore) SetProfile(_ context.Context, profile *domain.SessionProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[fieldProfile] = string(raw)
	return nil
}

func (s *memoryStore) Profile(_ context.Context) (*domain.SessionProfile, error) {
	s.mu.RLock()
	raw, ok := s.values[fieldProfile]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var profile domain.SessionProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *memoryStore) SetAdminProfile(_ context.Context, blob string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[fieldAdminProfile] = blob
	return nil
}

func (s *memoryStore) AdminProfile(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[fieldAdminProfile], nil
}
