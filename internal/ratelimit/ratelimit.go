// Package ratelimit is the caller-side throttle for the bot: a sliding
// window per chat. It is unrelated to the provider quota the client
// tracks; that one only reports numbers, this one actually says no.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Config struct {
	RequestsPerMinute int
	// Window defaults to one minute.
	Window time.Duration
}

// Limiter - sliding window на чат.
type Limiter struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
}

func New(ctx context.Context, cfg Config) *Limiter {
	limit := cfg.RequestsPerMinute
	if limit <= 0 {
		limit = 6
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}

	l := &Limiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
	}
	go l.cleanup(ctx)
	return l
}

// Allow records a request for the chat if it is under the limit.
func (l *Limiter) Allow(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	fresh := l.trim(chatID, now)

	if len(fresh) >= l.limit {
		l.requests[chatID] = fresh
		return false
	}

	l.requests[chatID] = append(fresh, now)
	return true
}

func (l *Limiter) Remaining(chatID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := l.trim(chatID, time.Now())
	l.requests[chatID] = fresh

	if rem := l.limit - len(fresh); rem > 0 {
		return rem
	}
	return 0
}

// ResetAt reports when the oldest recorded request falls out of the
// window, i.e. the earliest moment a blocked chat gets a slot back.
func (l *Limiter) ResetAt(chatID int64) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.requests[chatID]
	if len(ts) == 0 {
		return time.Now()
	}

	oldest := ts[0]
	for _, t := range ts[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}
	return oldest.Add(l.window)
}

// trim drops timestamps older than the window. Caller holds the lock.
func (l *Limiter) trim(chatID int64, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	old := l.requests[chatID]
	fresh := old[:0]
	for _, t := range old {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	return fresh
}

// cleanup drops idle chats so the map does not grow forever.
func (l *Limiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-l.window)
			for id, ts := range l.requests {
				live := false
				for _, t := range ts {
					if t.After(cutoff) {
						live = true
						break
					}
				}
				if !live {
					delete(l.requests, id)
				}
			}
			l.mu.Unlock()
		}
	}
}
