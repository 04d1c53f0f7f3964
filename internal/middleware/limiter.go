package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/auth"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Login and registration are the strict tier. Seller writes are limited per
// user and run behind Auth.
const (
	LimitAuth = rate.Limit(2)
	BurstAuth = 5

	LimitWrite = rate.Limit(1)
	BurstWrite = 10

	visitorIdle = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per caller.
type Limiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func NewLimiter(limit rate.Limit, burst int) *Limiter {
	return &Limiter{
		limit:    limit,
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Cleanup drops buckets idle for longer than idle, once a minute, until ctx ends.
func (l *Limiter) Cleanup(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		idle = visitorIdle
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep(idle)
		}
	}
}

func (l *Limiter) sweep(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > idle {
			delete(l.visitors, key)
		}
	}
}

// Middleware answers 429 once the caller's bucket is empty.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := visitorKey(r)
		if !l.get(key).Allow() {
			logger.FromCtx(r.Context()).Warn("rate limited", zap.String("visitor", key), zap.String("path", r.URL.Path))
			writeError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// visitorKey prefers the authenticated user, then a client-supplied device id,
// then the remote IP. The user key only applies when the limiter runs after Auth.
func visitorKey(r *http.Request) string {
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		return "user:" + p.UserID
	}
	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
		return "device:" + deviceID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
