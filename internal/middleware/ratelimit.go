package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"medibook-console/internal/exceptions"
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter keeps one token bucket per key: the API host on the client
// side, the caller's address on the server side.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	burst   int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
	}
}

// Allow takes a token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.get(key).Allow()
}

func (rl *RateLimiter) get(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// drop stale entries while we hold the lock
	for h, c := range rl.clients {
		if h != host && time.Since(c.seen) > 3*time.Minute {
			delete(rl.clients, h)
		}
	}
	if c, ok := rl.clients[host]; ok {
		c.seen = time.Now()
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[host] = &client{lim: l, seen: time.Now()}
	return l
}

// RateLimit throttles the credential endpoints. A throttled call fails with
// exceptions.ErrThrottled before anything is sent.
func RateLimit(rl *RateLimiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			if !isOpen(r.URL.Path) {
				return next.RoundTrip(r)
			}
			if !rl.get(r.URL.Host).Allow() {
				return nil, exceptions.ErrThrottled
			}
			return next.RoundTrip(r)
		})
	}
}
