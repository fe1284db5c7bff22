package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces a per-identity cooldown between accepted sends. State
// is process-local; a restart clears all cooldowns, which is acceptable
// for abuse damping. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   map[string]time.Time
}

// New creates a limiter with the given cooldown window.
func New(window time.Duration) *Limiter {
	return NewWithClock(window, time.Now)
}

// NewWithClock creates a limiter with an injectable clock for tests.
func NewWithClock(window time.Duration, clock func() time.Time) *Limiter {
	return &Limiter{
		window: window,
		now:    clock,
		last:   make(map[string]time.Time),
	}
}

// Allow reports whether a send from key is outside its cooldown window
// and, if so, records the acceptance.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if accepted, ok := l.last[key]; ok && now.Sub(accepted) < l.window {
		return false
	}
	l.last[key] = now
	return true
}

// Reset forgets the cooldown for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.last, key)
}

// Len returns the number of tracked identities.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}
