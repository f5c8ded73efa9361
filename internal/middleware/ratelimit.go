package middleware

import (
	"log"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter holds a token bucket per user. It guards both the HTTP API
// and bot commands.
type RateLimiter struct {
	limiters map[int64]*rate.Limiter
	mu       sync.Mutex
	// Rate is the number of events per second.
	rate rate.Limit
	// Burst is the burst size.
	burst int
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[int64]*rate.Limiter),
		rate:     r,
		burst:    b,
	}
}

// Allow reports whether userID may act now and spends a token if so.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	limiter, exists := rl.limiters[userID]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[userID] = limiter
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

// Middleware must run after AuthMiddleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			log.Printf("RateLimiter: No user in context - unauthorized")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if !rl.Allow(user.ID) {
			log.Printf("RateLimiter: Rate limit exceeded for user %d", user.ID)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
