package auth

import (
	"strings"
	"sync"
	"time"
)

// Lockout blocks a username after too many failed logins inside a window.
type Lockout struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	lockFor  time.Duration
	failures map[string][]time.Time
	locked   map[string]time.Time
	now      func() time.Time
}

func NewLockout(max int, window time.Duration, lockFor time.Duration) *Lockout {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	if lockFor <= 0 {
		lockFor = 5 * time.Minute
	}
	return &Lockout{
		max:      max,
		window:   window,
		lockFor:  lockFor,
		failures: make(map[string][]time.Time),
		locked:   make(map[string]time.Time),
		now:      time.Now,
	}
}

func lockoutKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Locked reports whether username is currently locked out.
func (l *Lockout) Locked(username string) bool {
	if l == nil {
		return false
	}
	key := lockoutKey(username)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.locked[key]
	if !ok {
		return false
	}
	if now.Before(until) {
		return true
	}
	delete(l.locked, key)
	return false
}

// Fail records a failed attempt and reports whether it caused a lock.
func (l *Lockout) Fail(username string) bool {
	if l == nil {
		return false
	}
	key := lockoutKey(username)
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.failures[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	if len(kept) >= l.max {
		l.locked[key] = now.Add(l.lockFor)
		delete(l.failures, key)
		return true
	}
	l.failures[key] = kept
	return false
}

func (l *Lockout) Reset(username string) {
	if l == nil {
		return
	}
	key := lockoutKey(username)
	l.mu.Lock()
	delete(l.failures, key)
	delete(l.locked, key)
	l.mu.Unlock()
}
