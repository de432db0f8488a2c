package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/aegis-risk/pkg/logger"
)

// Limiter decides whether one more API request may run now.
// Implemented by LocalLimiter (single process) and redis.RateLimiter (shared).
type Limiter interface {
	Allow(ctx context.Context) (bool, error)
}

// LocalLimiter 프로세스 내 토큰 버킷
type LocalLimiter struct {
	limiter *rate.Limiter
}

// NewLocalLimiter allows rps requests per second with the given burst
func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	return &LocalLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether a token is available
func (l *LocalLimiter) Allow(_ context.Context) (bool, error) {
	return l.limiter.Allow(), nil
}

// RouterOption configures NewRouter
type RouterOption func(*routerOptions)

type routerOptions struct {
	limiter Limiter
}

// WithRateLimit limits /api requests; the health check is never limited
func WithRateLimit(l Limiter) RouterOption {
	return func(o *routerOptions) {
		o.limiter = l
	}
}

// rateLimitMiddleware returns 429 when the limiter denies a request.
// A limiter error lets the request through.
func rateLimitMiddleware(l Limiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := l.Allow(r.Context())
			if err != nil {
				log.WithError(err).Warn("Rate limiter failed, allowing request")
				allowed = true
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
