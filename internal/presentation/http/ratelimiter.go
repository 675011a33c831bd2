package http

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// RateLimiterSettings configures the per-client limit applied to generation requests.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Enabled reports whether a refill rate is configured.
func (s RateLimiterSettings) Enabled() bool {
	return s.RequestsPerSecond > 0
}

type rateLimiterClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client identifier and forgets idle clients.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*rateLimiterClient
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	stop      chan struct{}
	closeOnce sync.Once
}

// NewRateLimiter validates settings and starts the idle-client sweep.
func NewRateLimiter(settings RateLimiterSettings) (*RateLimiter, error) {
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	rl := &RateLimiter{
		clients: make(map[string]*rateLimiterClient),
		limit:   rate.Limit(settings.RequestsPerSecond),
		burst:   settings.Burst,
		ttl:     settings.ClientTTL,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	ticker := time.NewTicker(settings.ClientTTL)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.pruneStale()
			case <-rl.stop:
				return
			}
		}
	}()

	return rl, nil
}

// Allow consumes a token for key if one is available.
func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[key]
	if !ok {
		client = &rateLimiterClient{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now

	return client.limiter.AllowN(now, 1)
}

// Close stops the idle-client sweep. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.stop)
	})
}

func (rl *RateLimiter) clientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) pruneStale() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, client := range rl.clients {
		if now.Sub(client.lastSeen) > rl.ttl {
			delete(rl.clients, key)
		}
	}
}
