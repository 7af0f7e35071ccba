package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jsedoc/fish-rankings/internal/cache"
	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
)

// Counter counts events in a fixed window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// AnonymousRateLimit limits unauthenticated clients to perMinute requests in
// each wall-clock minute. Authenticated requests are not counted. Counter
// failures let the request through.
func AnonymousRateLimit(logger *observability.Logger, counter Counter, perMinute int) func(http.Handler) http.Handler {
	return anonymousRateLimit(logger, counter, perMinute, time.Now)
}

func anonymousRateLimit(logger *observability.Logger, counter Counter, perMinute int, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			window := now().Truncate(time.Minute)
			n, err := counter.Incr(r.Context(), cache.RateLimitKey(clientIP(r), window), time.Minute)
			if err != nil {
				logger.Warn().Err(err).Msg("Rate limit counter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
			remaining := int64(perMinute) - n
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if n > int64(perMinute) {
				retry := window.Add(time.Minute).Sub(now())
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				writeError(w, http.StatusTooManyRequests, domain.KindRateLimited,
					"Rate limit exceeded. Sign in for unlimited queries.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
