package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// UserIDHeader містить ID автентифікованого користувача
const UserIDHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "user_id"

// RequireUser відхиляє запити без коректного заголовка X-User-ID
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get(UserIDHeader))
		if err != nil || userID == uuid.Nil {
			_ = render.Render(w, r, errUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID повертає ID користувача, встановлений RequireUser
func UserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}

// RateLimiter обмежує частоту запитів окремо для кожної IP-адреси клієнта
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
	logger   *slog.Logger
}

// NewRateLimiter створює новий RateLimiter
func NewRateLimiter(rps float64, burst int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		logger:   logger.With("component", "rate_limiter"),
	}
}

// Handler реалізує middleware обмеження частоти
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r)
		if !rl.limiter(client).Allow() {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"client", client,
			)
			w.Header().Set("Retry-After", "1")
			_ = render.Render(w, r, newAPIError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[client]
	if !ok {
		l = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[client] = l
	}
	return l
}

// clientIP повертає хост з RemoteAddr; middleware.RealIP вже підставляє адресу з проксі
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
