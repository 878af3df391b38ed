// Package sessions issues and validates opaque admin session tokens.
package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/muntakson/salama/internal/models"
)

// ErrInvalidSession is returned for unknown, expired or revoked tokens
var ErrInvalidSession = errors.New("invalid session")

// Store issues, validates and revokes admin sessions
type Store interface {
	Create(ctx context.Context) (*models.AdminSession, error)
	Valid(ctx context.Context, token string) error
	Revoke(ctx context.Context, token string) error
	HealthCheck(ctx context.Context) error
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]time.Time
	now      func() time.Time
}

// NewMemoryStore creates a store whose sessions live for ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Create issues a new session token
func (s *MemoryStore) Create(ctx context.Context) (*models.AdminSession, error) {
	token, err := models.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.AdminSession{Token: token, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}

	s.mu.Lock()
	s.sessions[token] = session.ExpiresAt
	s.mu.Unlock()

	return session, nil
}

// Valid returns ErrInvalidSession unless the token is live
func (s *MemoryStore) Valid(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.sessions[token]
	if !ok {
		return ErrInvalidSession
	}
	if !s.now().Before(expiresAt) {
		delete(s.sessions, token)
		return ErrInvalidSession
	}
	return nil
}

// Revoke forgets the token; unknown tokens are ignored
func (s *MemoryStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// HealthCheck always succeeds
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Sweep drops expired sessions and returns how many were removed
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, expiresAt := range s.sessions {
		if !now.Before(expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked sessions
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
