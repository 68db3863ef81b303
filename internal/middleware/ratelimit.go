package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type window struct {
	count int
	until time.Time
}

// RateLimiter is a fixed-window per-client limiter. Media generation is
// expensive upstream, so the limit applies per IP rather than globally.
type RateLimiter struct {
	limit int
	per   time.Duration

	mu      sync.Mutex
	windows map[string]*window
}

func NewRateLimiter(limit int, per time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		per:     per,
		windows: make(map[string]*window),
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		retryAfter, ok := rl.allow(clientIP(r), time.Now())
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string, now time.Time) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.windows) > 4096 {
		for key, win := range rl.windows {
			if now.After(win.until) {
				delete(rl.windows, key)
			}
		}
	}

	win, ok := rl.windows[ip]
	if !ok || now.After(win.until) {
		win = &window{until: now.Add(rl.per)}
		rl.windows[ip] = win
	}
	if win.count >= rl.limit {
		return time.Until(win.until), false
	}
	win.count++
	return 0, true
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
