package server

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter throttles expensive endpoints with a shared token bucket
type rateLimiter struct {
	limiter *rate.Limiter
}

// newRateLimiter returns a limiter allowing rps requests per second with the
// given burst. rps <= 0 disables limiting.
func newRateLimiter(rps float64, burst int) *rateLimiter {
	if rps <= 0 {
		return &rateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Middleware rejects requests with 429 once the bucket is empty
func (l *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please retry later.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *rateLimiter) retryAfterSeconds() int {
	limit := float64(l.limiter.Limit())
	if limit <= 0 || math.IsInf(limit, 1) {
		return 1
	}
	wait := time.Duration(float64(time.Second) / limit)
	return int(math.Max(1, math.Ceil(wait.Seconds())))
}
