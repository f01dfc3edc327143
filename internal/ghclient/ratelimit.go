package ghclient

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned by the transport when the API quota is exhausted.
var ErrRateLimited = errors.New("rate limited")

// rateLimitState tracks the quota observed in response headers for one client.
type rateLimitState struct {
	mu        sync.RWMutex
	limited   bool
	resetAt   time.Time
	remaining int
	limit     int
	now       func() time.Time
}

func newRateLimitState() *rateLimitState {
	return &rateLimitState{remaining: -1, limit: -1, now: time.Now}
}

// isLimited reports whether the quota is exhausted and has not yet reset.
func (s *rateLimitState) isLimited() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.limited {
		return false
	}
	return s.now().Before(s.resetAt)
}

// setLimited marks the quota as exhausted until resetAt.
func (s *rateLimitState) setLimited(resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limited = true
	s.resetAt = resetAt
}

// update records the quota from response headers.
func (s *rateLimitState) update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
	s.limited = remaining == 0
}

// status returns the last observed quota. ok is false until a response
// carrying rate limit headers has been seen.
func (s *rateLimitState) status() (remaining, limit int, resetAt time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining, s.limit, s.resetAt, s.limit > 0
}
