package mw

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/notice/internal/logger"
	"github.com/MrSnakeDoc/notice/internal/metrics"
	"github.com/MrSnakeDoc/notice/internal/ratelimit"
	"github.com/MrSnakeDoc/notice/internal/utils"
)

// RejectMessage is the body of a 429 response.
const RejectMessage = "Too many requests, please try again later."

type RateLimitConfig struct {
	Limiter    *ratelimit.Limiter
	TrustProxy bool // resolve the client address from proxy headers when true
	Logger     logger.Logger
	// OnReject runs once for every rejected request, before the 429 is written.
	OnReject func(r *http.Request, addr string)
}

// RateLimit admits at most Policy.Limit requests per client address per window.
// Only the standard RateLimit-* headers are sent, never X-RateLimit-*.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	policy := cfg.Limiter.Policy().Header()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := utils.ClientIP(r, cfg.TrustProxy)

			d, err := cfg.Limiter.Allow(r.Context(), addr)
			if err != nil {
				metrics.RateLimitStoreErrors.Inc()
				cfg.Logger.Warn("rate limit store unavailable, admitting request",
					logger.String("remote_ip", addr),
					logger.Error(err))
			}

			h := w.Header()
			h.Set("RateLimit-Policy", policy)
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(d.ResetSeconds()))

			if !d.Allowed {
				metrics.RateLimited.Inc()
				if cfg.OnReject != nil {
					cfg.OnReject(r, addr)
				}
				h.Set("Retry-After", strconv.Itoa(d.ResetSeconds()))
				h.Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(RejectMessage))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
