package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per key. Buckets idle for longer
// than ttl are dropped by a sweep that runs at most once per ttl.
type KeyedRateLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[string]*keyedLimiter
	lastSweep time.Time
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewKeyedRateLimiter(rps float64, burst int, ttl time.Duration) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (k *KeyedRateLimiter) Allow(key string) bool {
	now := k.now()

	k.mu.Lock()
	if now.Sub(k.lastSweep) >= k.ttl {
		k.sweep(now)
	}
	l, ok := k.limiters[key]
	if !ok {
		l = &keyedLimiter{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = l
	}
	l.lastSeen = now
	k.mu.Unlock()

	return l.limiter.AllowN(now, 1)
}

// sweep drops idle buckets. k.mu must be held.
func (k *KeyedRateLimiter) sweep(now time.Time) {
	for id, l := range k.limiters {
		if now.Sub(l.lastSeen) > k.ttl {
			delete(k.limiters, id)
		}
	}
	k.lastSweep = now
}

func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

func RateLimit(rl *KeyedRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if !rl.Allow(identity) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIP extracts the client IP from RemoteAddr. Forwarding headers are not
// trusted.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}
	return ip, nil
}
