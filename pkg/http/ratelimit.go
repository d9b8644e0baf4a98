package http

import (
	"net"
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"

	apierr "onchain_yield_api/internal/errors"
	"onchain_yield_api/internal/handler"
)

const maxTrackedClients = 4096

// ClientLimiter keeps one token bucket per client IP. Buckets for the least
// recently seen clients are dropped once maxTrackedClients is reached.
type ClientLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache
	rps      rate.Limit
	burst    int
}

func NewClientLimiter(rps float64, burst int) (*ClientLimiter, error) {
	c, err := lru.New(maxTrackedClients)
	if err != nil {
		return nil, err
	}
	return &ClientLimiter{limiters: c, rps: rate.Limit(rps), burst: burst}, nil
}

func (l *ClientLimiter) Allow(client string) bool {
	l.mu.Lock()
	raw, ok := l.limiters.Get(client)
	if !ok {
		raw = rate.NewLimiter(l.rps, l.burst)
		l.limiters.Add(client, raw)
	}
	l.mu.Unlock()
	return raw.(*rate.Limiter).Allow()
}

func (l *ClientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			he := apierr.ErrTooManyRequests
			handler.WriteErrorJSON(w, he.StatusCode(), he.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
