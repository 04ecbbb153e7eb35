package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCreate(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(0, WithClock(clock.Now))

	sess, err := s.Create("ana@x.io", int64(7))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(sess.Token)
	if err != nil {
		t.Fatalf("token is not unpadded URL-safe base64: %v", err)
	}
	if len(raw) != tokenBytes {
		t.Errorf("token entropy = %d bytes, want %d", len(raw), tokenBytes)
	}
	if sess.Email != "ana@x.io" || sess.UserID != int64(7) {
		t.Errorf("session = %+v", sess)
	}
	if !sess.ExpiresAt.Equal(clock.Now().Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want created + 24h", sess.ExpiresAt)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestCreate_UniqueTokens(t *testing.T) {
	s := NewStore(time.Hour)
	seen := make(map[string]bool)

	for range 100 {
		sess, err := s.Create("ana@x.io", int64(7))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[sess.Token] {
			t.Fatalf("duplicate token %q", sess.Token)
		}
		seen[sess.Token] = true
	}
}

func TestCreate_RandomFailure(t *testing.T) {
	s := NewStore(time.Hour, WithRandom(bytes.NewReader(nil)))

	if _, err := s.Create("ana@x.io", 7); err == nil {
		t.Error("Create() expected error when the random source is exhausted")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestValidate_Lifetime(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantErr error
	}{
		{name: "fresh", advance: 0},
		{name: "just before expiry", advance: 24*time.Hour - time.Second},
		{name: "exactly at expiry", advance: 24 * time.Hour},
		{name: "just after expiry", advance: 24*time.Hour + time.Nanosecond, wantErr: ErrExpired},
		{name: "long after expiry", advance: 72 * time.Hour, wantErr: ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			s := NewStore(24*time.Hour, WithClock(clock.Now))

			created, err := s.Create("ana@x.io", int64(7))
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			clock.Advance(tt.advance)

			sess, err := s.Validate(created.Token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if s.Len() != 0 {
					t.Errorf("expired session still stored, Len() = %d", s.Len())
				}
				return
			}
			if sess.Email != "ana@x.io" || sess.UserID != int64(7) {
				t.Errorf("Validate() = %+v", sess)
			}
		})
	}
}

func TestValidate_ExpiredThenNotFound(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(24*time.Hour, WithClock(clock.Now))

	created, err := s.Create("ana@x.io", int64(7))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	clock.Advance(24*time.Hour + time.Second)

	if _, err := s.Validate(created.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("first Validate() error = %v, want ErrExpired", err)
	}
	if _, err := s.Validate(created.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Validate() error = %v, want ErrNotFound", err)
	}
}

func TestValidate_DoesNotExtend(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(24*time.Hour, WithClock(clock.Now))

	created, err := s.Create("ana@x.io", int64(7))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	clock.Advance(23 * time.Hour)
	if _, err := s.Validate(created.Token); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	clock.Advance(2 * time.Hour)
	if _, err := s.Validate(created.Token); !errors.Is(err, ErrExpired) {
		t.Errorf("Validate() error = %v, want ErrExpired", err)
	}
}

func TestValidate_Unknown(t *testing.T) {
	s := NewStore(time.Hour)

	if _, err := s.Validate("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Validate() error = %v, want ErrNotFound", err)
	}
}

func TestInvalidate(t *testing.T) {
	s := NewStore(time.Hour)

	created, err := s.Create("ana@x.io", int64(7))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !s.Invalidate(created.Token) {
		t.Error("Invalidate() = false, want true")
	}
	if s.Invalidate(created.Token) {
		t.Error("second Invalidate() = true, want false")
	}
	if _, err := s.Validate(created.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("Validate() after Invalidate error = %v, want ErrNotFound", err)
	}
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(time.Hour, WithClock(clock.Now))

	for range 3 {
		if _, err := s.Create("old@x.io", 1); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	clock.Advance(30 * time.Minute)
	fresh, err := s.Create("new@x.io", 2)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	clock.Advance(31 * time.Minute)

	if removed := s.Sweep(); removed != 3 {
		t.Errorf("Sweep() = %d, want 3", removed)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if _, err := s.Validate(fresh.Token); err != nil {
		t.Errorf("Validate(fresh) error = %v", err)
	}
}

func TestRun(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(time.Hour, WithClock(clock.Now))

	if _, err := s.Create("ana@x.io", 1); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	clock.Advance(2 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if s.Len() != 0 {
		t.Errorf("Len() = %d after Run, want 0", s.Len())
	}
}

func TestRun_DisabledReturns(t *testing.T) {
	s := NewStore(time.Hour)
	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Run() with zero interval did not return")
	}
}

func TestStore_Concurrent(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(time.Hour, WithClock(clock.Now))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := s.Create("ana@x.io", i)
			if err != nil {
				t.Errorf("Create() error = %v", err)
				return
			}
			if _, err := s.Validate(sess.Token); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if i%2 == 0 {
				s.Invalidate(sess.Token)
			}
			s.Sweep()
		}(i)
	}
	wg.Wait()

	if s.Len() != 25 {
		t.Errorf("Len() = %d, want 25", s.Len())
	}
}
