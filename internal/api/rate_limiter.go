package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// Rate limit tiers selected by the X-API-Tier header
const (
	tierFree    = "free"
	tierPremium = "premium"
)

// RateLimiter manages per-client rate limiting for API requests
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex

	freeTierLimit    rate.Limit
	premiumTierLimit rate.Limit

	// Burst size (number of requests that can be made in a burst)
	burstSize int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(freeTierRPS, premiumTierRPS int) *RateLimiter {
	return &RateLimiter{
		limiters:         make(map[string]*rate.Limiter),
		freeTierLimit:    rate.Limit(freeTierRPS),
		premiumTierLimit: rate.Limit(premiumTierRPS),
		burstSize:        10,
	}
}

// getLimiter returns the rate limiter for one client key
func (rl *RateLimiter) getLimiter(key, tier string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	limit := rl.freeTierLimit
	if tier == tierPremium {
		limit = rl.premiumTierLimit
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check in case another goroutine created it
	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(limit, rl.burstSize)
	rl.limiters[key] = limiter

	return limiter
}

// RateLimitMiddleware creates a middleware that enforces rate limiting
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier := r.Header.Get("X-API-Tier")
			if tier == "" {
				tier = tierFree
			}

			// Clients are keyed by remote address.
			limiter := rl.getLimiter(r.RemoteAddr, tier)

			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Rate limit exceeded. Please try again later.", map[string]interface{}{
					"tier":  tier,
					"limit": limiter.Limit(),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
