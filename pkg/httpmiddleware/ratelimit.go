package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window limiter.
type RateLimitConfig struct {
	// Max requests per Window and key. Zero disables limiting.
	Max    int
	Window time.Duration
	// KeyFunc names the bucket of a request. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
}

// window approximates a sliding window from two fixed ones.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

type limiter struct {
	max    int
	period time.Duration

	mu      sync.Mutex
	windows map[string]*window
}

func (l *limiter) take(key string, now time.Time) (remaining int, reset time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, found := l.windows[key]
	if !found {
		w = &window{start: now.Truncate(l.period)}
		l.windows[key] = w
	}
	switch since := now.Sub(w.start); {
	case since >= 2*l.period:
		w.start, w.prev, w.curr = now.Truncate(l.period), 0, 0
	case since >= l.period:
		w.start, w.prev, w.curr = w.start.Add(l.period), w.curr, 0
	}

	weight := 1 - float64(now.Sub(w.start))/float64(l.period)
	used := w.prev*weight + w.curr
	reset = w.start.Add(l.period)
	if used >= float64(l.max) {
		return 0, reset, false
	}
	w.curr++
	return max(0, l.max-int(math.Ceil(used+1))), reset, true
}

func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.start) >= 2*l.period {
			delete(l.windows, key)
		}
	}
}

// RateLimit enforces cfg per key and answers 429 with Retry-After once a key
// is exhausted. Every limited response carries X-RateLimit-* headers. Stale
// keys are evicted in the background until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	l := &limiter{max: cfg.Max, period: cfg.Window, windows: make(map[string]*window)}

	go func() {
		ticker := time.NewTicker(2 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evict(now)
			}
		}
	}()

	limit := strconv.Itoa(cfg.Max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			remaining, reset, ok := l.take(cfg.KeyFunc(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(reset.Sub(now).Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserOrIP buckets authenticated requests by user and the rest by ClientIP.
func UserOrIP(user func(context.Context) string) func(*http.Request) string {
	return func(r *http.Request) string {
		if u := user(r.Context()); u != "" {
			return "user:" + u
		}
		return "ip:" + ClientIP(r)
	}
}
