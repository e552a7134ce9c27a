package web

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateWindow is the period over which a client's request budget refills.
const rateWindow = 15 * time.Minute

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	interval time.Duration
	burst    int
	now      func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newClientLimiter allows perWindow requests per client every rateWindow,
// all of which may arrive as a burst.
func newClientLimiter(perWindow int) *clientLimiter {
	return &clientLimiter{
		interval: rateWindow / time.Duration(perWindow),
		burst:    perWindow,
		now:      time.Now,
		clients:  make(map[string]*clientBucket),
	}
}

func (l *clientLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.clients[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Every(l.interval), l.burst)}
		l.clients[client] = b
	}
	b.lastSeen = now

	if now.Sub(l.lastSweep) > rateWindow {
		l.sweep(now)
	}
	return b.limiter.AllowN(now, 1)
}

// sweep forgets clients idle for a whole window; their buckets are full.
func (l *clientLimiter) sweep(now time.Time) {
	for k, b := range l.clients {
		if now.Sub(b.lastSeen) > rateWindow {
			delete(l.clients, k)
		}
	}
	l.lastSweep = now
}

// middleware limits requests under /api/. Health and metrics stay open.
func (l *clientLimiter) middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(l.interval.Seconds()) + 1)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		if !l.allow(clientAddr(r)) {
			w.Header().Set("Retry-After", retryAfter)
			apiError(w, "too many requests, try again later", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
