// Package ratelimit implements per-client token bucket rate limiting for the HTTP API.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// defaultMaxClients bounds the number of tracked buckets. When the table is
// full it is reset, which briefly refills every client's burst.
const defaultMaxClients = 10000

// Limiter manages one token bucket per client key.
type Limiter struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	rate       rate.Limit
	burst      int
	maxClients int
}

// Config holds rate limiter configuration.
type Config struct {
	// RPS is the sustained requests per second per client; <= 0 disables limiting.
	RPS        float64
	Burst      int
	MaxClients int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	maxClients := cfg.MaxClients
	if maxClients <= 0 {
		maxClients = defaultMaxClients
	}
	return &Limiter{
		limiters:   make(map[string]*rate.Limiter),
		rate:       r,
		burst:      burst,
		maxClients: maxClients,
	}
}

// Enabled reports whether the limiter rejects anything at all.
func (l *Limiter) Enabled() bool {
	return l.rate != rate.Inf
}

// Allow consumes a token for key and reports whether the request may proceed.
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	l.mu.Lock()
	limiter, exists := l.limiters[key]
	if !exists {
		if len(l.limiters) >= l.maxClients {
			clear(l.limiters)
		}
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// Clients returns the number of tracked buckets.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
