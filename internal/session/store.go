// Package session issues and tracks opaque bearer tokens held in memory.
//
// Sessions do not survive a restart. Each token is 32 random bytes encoded as
// unpadded URL-safe base64 and is valid until its fixed expiry; validation
// never extends it.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/iotnatural/poolwatch-core/internal/metrics"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// tokenBytes is the number of random bytes in a token.
const tokenBytes = 32

// Session is an authenticated user's session.
type Session struct {
	Token     string
	Email     string
	UserID    any
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is a concurrency-safe in-memory session table.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session

	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRandom replaces crypto/rand as the token source, for tests.
func WithRandom(r io.Reader) Option {
	return func(s *Store) { s.random = r }
}

// NewStore creates an empty store. A non-positive ttl selects DefaultTTL.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create issues a new token for the user.
//
// Returns:
//   - *Session: The new session, expiring TTL after now
//   - error: If the random source fails
func (s *Store) Create(email string, userID any) (*Session, error) {
	token, err := s.newToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := Session{
		Token:     token,
		Email:     email,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[token] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.RecordSessionEvent(metrics.SessionCreated)
	metrics.SetActiveSessions(n)

	return &sess, nil
}

// Validate returns the session for token.
//
// A session is valid while now <= ExpiresAt. An expired session is deleted
// when detected and ErrExpired is returned; unknown tokens return ErrNotFound.
func (s *Store) Validate(token string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		metrics.RecordSessionEvent(metrics.SessionInvalid)
		return nil, ErrNotFound
	}
	if !s.now().After(sess.ExpiresAt) {
		metrics.RecordSessionEvent(metrics.SessionValidated)
		return &sess, nil
	}

	// Re-check under the write lock: a concurrent caller may already have removed it.
	s.mu.Lock()
	current, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		metrics.RecordSessionEvent(metrics.SessionInvalid)
		return nil, ErrNotFound
	}
	if !s.now().After(current.ExpiresAt) {
		s.mu.Unlock()
		return &current, nil
	}
	delete(s.sessions, token)
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.RecordSessionEvent(metrics.SessionExpired)
	metrics.SetActiveSessions(n)

	return nil, ErrExpired
}

// Invalidate removes token. It reports whether a session was removed.
func (s *Store) Invalidate(token string) bool {
	s.mu.Lock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	n := len(s.sessions)
	s.mu.Unlock()

	if ok {
		metrics.RecordSessionEvent(metrics.SessionInvalidated)
		metrics.SetActiveSessions(n)
	}
	return ok
}

// Len returns the number of sessions held, expired ones included until removed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes every expired session and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		metrics.RecordSessionsSwept(removed)
		metrics.SetActiveSessions(n)
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled.
// A non-positive interval returns immediately.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// newToken returns a fresh random token.
func (s *Store) newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
