// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds throttle parameters for one route group.
type Config struct {
	WindowSize    time.Duration
	MaxRequests   int
	CleanupPeriod time.Duration
	BlockDuration time.Duration
}

// MessageConfig throttles message sends: generous enough for a lively
// conversation, tight enough to stop a flood.
func MessageConfig() *Config {
	return &Config{
		WindowSize:    time.Minute,
		MaxRequests:   30,
		CleanupPeriod: 10 * time.Minute,
		BlockDuration: 5 * time.Minute,
	}
}

// ChatCreateConfig throttles chat creation, which is far rarer.
func ChatCreateConfig() *Config {
	return &Config{
		WindowSize:    time.Minute,
		MaxRequests:   5,
		CleanupPeriod: 10 * time.Minute,
		BlockDuration: 15 * time.Minute,
	}
}

type window struct {
	count     int
	firstSeen time.Time
	blockedAt *time.Time
}

// Limiter is an in-memory fixed-window throttle keyed by caller
// identity. Process-local, like the connection registry.
type Limiter struct {
	config  *Config
	windows map[string]*window
	mu      sync.Mutex
	stopCh  chan struct{}
}

func NewLimiter(config *Config) *Limiter {
	l := &Limiter{
		config:  config,
		windows: make(map[string]*window),
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Status reports the throttle decision for one request.
type Status struct {
	Allowed    bool
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Blocked    bool
}

// Allow records one request for the key and reports whether it may
// proceed.
func (l *Limiter) Allow(key string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.firstSeen) > l.config.WindowSize && w.blockedAt == nil {
		l.windows[key] = &window{count: 1, firstSeen: now}
		return Status{
			Allowed:   true,
			Remaining: l.config.MaxRequests - 1,
			ResetTime: now.Add(l.config.WindowSize),
		}
	}

	if w.blockedAt != nil {
		if now.Sub(*w.blockedAt) < l.config.BlockDuration {
			retry := l.config.BlockDuration - now.Sub(*w.blockedAt)
			return Status{
				ResetTime:  w.blockedAt.Add(l.config.BlockDuration),
				RetryAfter: retry,
				Blocked:    true,
			}
		}
		// Block expired, start a fresh window.
		w.count = 1
		w.firstSeen = now
		w.blockedAt = nil
		return Status{
			Allowed:   true,
			Remaining: l.config.MaxRequests - 1,
			ResetTime: now.Add(l.config.WindowSize),
		}
	}

	w.count++
	if w.count > l.config.MaxRequests {
		blocked := now
		w.blockedAt = &blocked
		return Status{
			ResetTime:  now.Add(l.config.BlockDuration),
			RetryAfter: l.config.BlockDuration,
			Blocked:    true,
		}
	}

	return Status{
		Allowed:   true,
		Remaining: l.config.MaxRequests - w.count,
		ResetTime: w.firstSeen.Add(l.config.WindowSize),
	}
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, w := range l.windows {
		windowExpired := w.blockedAt == nil && now.Sub(w.firstSeen) > l.config.WindowSize
		blockExpired := w.blockedAt != nil && now.Sub(*w.blockedAt) > l.config.BlockDuration
		if windowExpired || blockExpired {
			delete(l.windows, key)
		}
	}
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	close(l.stopCh)
}

// ClientIP extracts the real client IP, honoring proxy headers.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
