package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	dErrors "vigil/pkg/domain-errors"
	"vigil/pkg/platform/httputil"
)

// Middleware applies a per-source request limit. Sources are keyed by
// client IP; a limit of zero disables the middleware entirely.
type Middleware struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewMiddleware(store Store, limit int, window time.Duration, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{store: store, limit: limit, window: window, logger: logger}
}

func (m *Middleware) Limit(next http.Handler) http.Handler {
	if m.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		result, err := m.store.Allow(r.Context(), key, m.limit, m.window)
		if err != nil {
			// Fail open: shedding load is best effort, dropping real
			// observations because Redis hiccuped is not.
			m.logger.Warn("rate limit check failed, allowing request",
				slog.String("source", key),
				slog.String("error", err.Error()),
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			retry := max(time.Until(result.ResetAt), time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
			m.logger.Warn("observation source rate limited", slog.String("source", key))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "observation rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
