// Package ratelimit provides per-client request rate limiting using a fixed
// window counter. The limiter sits behind a small interface so the HTTP layer
// does not depend on the counting algorithm.
package ratelimit

import (
	"sync"
	"time"
)

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit      int           // Maximum requests per window
	Remaining  int           // Requests left in the current window
	ResetAt    time.Time     // When the current window ends
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}

// Limiter defines the rate limiting contract. Implementations must be safe
// for concurrent use.
type Limiter interface {
	// Allow reports whether a request from the client identified by key
	// should be allowed at the given time, and returns window state for
	// response headers.
	Allow(key string, now time.Time) (bool, Info)

	// Close stops background goroutines and releases resources.
	Close()
}

// FixedWindow is a fixed-window Limiter. A client's window opens on its first
// request and resets exactly at open + window; the reset instant is fixed per
// window, never staggered per request.
type FixedWindow struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	done      chan struct{}
	closeOnce sync.Once
}

type bucket struct {
	count   int
	resetAt time.Time
}

// NewFixedWindow creates a limiter allowing limit requests per window for
// each client key. It starts a janitor goroutine that evicts idle buckets;
// call Close to stop it.
func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	l := &FixedWindow{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}

	go l.janitor()

	return l
}

// Allow implements Limiter.
func (l *FixedWindow) Allow(key string, now time.Time) (bool, Info) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		// First request from this client, or the previous window expired:
		// open a fresh window.
		b = &bucket{count: 1, resetAt: now.Add(l.window)}
		l.buckets[key] = b
		return true, l.info(b, now)
	}

	if b.count < l.limit {
		b.count++
		return true, l.info(b, now)
	}

	info := l.info(b, now)
	info.RetryAfter = b.resetAt.Sub(now)
	return false, info
}

func (l *FixedWindow) info(b *bucket, now time.Time) Info {
	remaining := l.limit - b.count
	if remaining < 0 {
		remaining = 0
	}
	return Info{
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   b.resetAt,
	}
}

// Close stops the janitor goroutine. Safe to call more than once.
func (l *FixedWindow) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// janitor periodically drops buckets whose window expired more than one
// window ago. Eviction is an optimization only: Allow reopens expired
// windows on its own.
func (l *FixedWindow) janitor() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				if now.Sub(b.resetAt) > l.window {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
