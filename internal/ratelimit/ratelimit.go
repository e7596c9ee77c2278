// Package ratelimit provides a process-local fixed-window rate limiter.
// It is a best-effort, single-instance guard: counters live in memory and
// reset on restart.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Config contains the per-action limits.
type Config struct {
	AuthLimit    int           // Max auth attempts per window
	AuthWindow   time.Duration // Auth rate limit window
	CreateLimit  int           // Max poll creations per window
	CreateWindow time.Duration // Poll creation window
	VoteLimit    int           // Max votes per window
	VoteWindow   time.Duration // Vote window
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		AuthLimit:    5, // 5 auth attempts per minute
		AuthWindow:   60 * time.Second,
		CreateLimit:  3, // 3 poll creations per minute
		CreateWindow: 60 * time.Second,
		VoteLimit:    10, // 10 votes per minute
		VoteWindow:   60 * time.Second,
	}
}

// Result contains the outcome of a rate limit check
type Result struct {
	Allowed   bool          // Whether the action is allowed
	Remaining int           // Remaining actions in the window
	ResetIn   time.Duration // Time until the window resets
	Limit     int           // The limit for this action
}

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter tracks request counts per (actor, action) key. One instance is
// constructed per process and handed to every consumer; tests build their
// own so each case starts from an empty table.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	config  Config
	now     func() time.Time
}

// New creates a limiter with the given config.
func New(config Config) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		config:  config,
		now:     time.Now,
	}
}

// NewWithClock creates a limiter with an injected clock, for tests.
func NewWithClock(config Config, now func() time.Time) *Limiter {
	l := New(config)
	l.now = now
	return l
}

// AllowRegister checks if an actor (client IP) can attempt registration.
func (l *Limiter) AllowRegister(actor string) *Result {
	return l.checkAndConsume(key(actor, "register"), l.config.AuthLimit, l.config.AuthWindow)
}

// AllowLogin checks if an actor (client IP) can attempt a login.
func (l *Limiter) AllowLogin(actor string) *Result {
	return l.checkAndConsume(key(actor, "login"), l.config.AuthLimit, l.config.AuthWindow)
}

// AllowCreatePoll checks if a user can create a poll.
func (l *Limiter) AllowCreatePoll(actor string) *Result {
	return l.checkAndConsume(key(actor, "create_poll"), l.config.CreateLimit, l.config.CreateWindow)
}

// AllowVote checks if an actor can submit a vote.
func (l *Limiter) AllowVote(actor string) *Result {
	return l.checkAndConsume(key(actor, "vote"), l.config.VoteLimit, l.config.VoteWindow)
}

// checkAndConsume applies the fixed-window counter for one key. The
// attempt that tips the counter past the limit is itself counted and
// denied. Increments are atomic per key: the whole read-modify-write runs
// under the table lock.
func (l *Limiter) checkAndConsume(key string, limit int, window time.Duration) *Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) > window {
		e = &entry{count: 1, windowStart: now}
		l.entries[key] = e
	} else {
		e.count++
	}

	remaining := limit - e.count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   e.count <= limit,
		Remaining: remaining,
		ResetIn:   window - now.Sub(e.windowStart),
		Limit:     limit,
	}
}

// Reset clears the counter for a given actor and action.
func (l *Limiter) Reset(actor, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key(actor, action))
}

func key(actor, action string) string {
	return fmt.Sprintf("ratelimit:%s:%s", actor, action)
}
