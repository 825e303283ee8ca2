// File: internal/middleware/ratelimit.go
package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/partshub/chat-service/internal/ratelimit"
)

// RateLimitMiddleware throttles a route group. Authenticated and
// anonymous callers are keyed by identity so multi-tab sessions share
// one budget; everyone else falls back to the client IP.
func RateLimitMiddleware(limiter *ratelimit.Limiter, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ratelimit.ClientIP(r)
			if id := IdentityFromContext(r.Context()); id.Known() {
				key = id.ID
			}

			status := limiter.Allow(key)
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", status.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", status.ResetTime.Unix()))

			if !status.Allowed {
				log.Printf("[RateLimit] Blocked %s request from %s", name, key)
				if status.RetryAfter > 0 {
					w.Header().Set("Retry-After", fmt.Sprintf("%.0f", status.RetryAfter.Seconds()))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
