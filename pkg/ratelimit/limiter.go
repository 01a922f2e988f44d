package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages named rate limiters for the upstream services
// the pipeline talks to. Waits are blocking: the fetch phase issues its
// query variants serially and pauses between them to stay under the
// provider's request budget.
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates an empty multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter registers a limiter for a service.
// requestsPerSecond is the sustained rate, burst the maximum burst size.
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the named limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event may happen now without blocking
func (m *MultiLimiter) Allow(name string) bool {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	return limiter.Allow()
}

// Default rate limiter names
const (
	LimiterGitHub    = "github"
	LimiterRSS       = "rss"
	LimiterAnthropic = "anthropic"
	LimiterSheets    = "sheets"
)

// NewDefaultLimiter creates a limiter with default rate limits
func NewDefaultLimiter() *MultiLimiter {
	m := NewMultiLimiter()

	// GitHub search API: 30 requests per minute authenticated, burst 1
	// so consecutive query variants are actually spaced out
	m.AddLimiter(LimiterGitHub, 30.0/60, 1)

	// Anthropic: 10 requests per minute, burst 2
	m.AddLimiter(LimiterAnthropic, 10.0/60, 2)

	// RSS: no strict limit, but be polite - 1 per second, burst 5
	m.AddLimiter(LimiterRSS, 1, 5)

	// Sheets API: 60 requests per minute per user, burst 5
	m.AddLimiter(LimiterSheets, 1, 5)

	return m
}
