package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/api/responses"
	"github.com/eventyard/eventyard-backend/pkg/config"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
)

// WindowLimiter counts a hit against a scope and reports whether the caller
// is still inside the window budget.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit applies a fixed-window limit per authenticated user, falling back
// to the caller address for anonymous traffic. Limiter outages fail open.
func RateLimit(limiter WindowLimiter, cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || cfg.Requests <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			scope := limitScope(r)
			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope, cfg.Requests, cfg.Window)
			if err != nil {
				logError(r.Context(), logg, "rate limit check", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(cfg.Requests, 10))
			if remaining := cfg.Requests - count; remaining > 0 {
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			} else {
				w.Header().Set("X-RateLimit-Remaining", "0")
			}

			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limitScope(r *http.Request) string {
	if userID := UserIDFromContext(r.Context()); userID != uuid.Nil {
		return "user:" + userID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
