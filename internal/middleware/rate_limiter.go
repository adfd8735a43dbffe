package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// window counts the requests of one client IP until windowEnd.
type window struct {
	count     int
	windowEnd time.Time
}

// fixedWindow is a per-IP fixed-window counter.
type fixedWindow struct {
	mu      sync.Mutex
	limit   int
	span    time.Duration
	entries map[string]*window
}

func newFixedWindow(limit int, span time.Duration) *fixedWindow {
	return &fixedWindow{limit: limit, span: span, entries: make(map[string]*window)}
}

// allow records one request from ip and reports whether it is within the
// limit, together with the end of the current window.
func (w *fixedWindow) allow(ip string, now time.Time) (bool, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &window{windowEnd: now.Add(w.span)}
		w.entries[ip] = e
	}
	e.count++
	return e.count <= w.limit, e.windowEnd
}

func (w *fixedWindow) purge(now time.Time) (purged, remaining int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ip, e := range w.entries {
		if now.After(e.windowEnd) {
			delete(w.entries, ip)
			purged++
		}
	}
	return purged, len(w.entries)
}

var (
	limitersMu sync.Mutex
	limiters   []*fixedWindow

	loginWindow = register(newFixedWindow(20, time.Minute))
)

func register(w *fixedWindow) *fixedWindow {
	limitersMu.Lock()
	limiters = append(limiters, w)
	limitersMu.Unlock()
	return w
}

func limited(w *fixedWindow, detail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := w.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", end.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(detail))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login and registration attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return limited(loginWindow, "Too many login attempts. Try again in a minute.")
}

// RateLimiter allows limit requests per client IP within each window.
func RateLimiter(limit int, span time.Duration) gin.HandlerFunc {
	return limited(register(newFixedWindow(limit, span)), "Too many requests. Please slow down.")
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Expired entries are dropped so IPs that never return do not accumulate.

const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredEntries()
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for now := range ticker.C {
		limitersMu.Lock()
		all := append([]*fixedWindow(nil), limiters...)
		limitersMu.Unlock()

		purged, remaining := 0, 0
		for _, w := range all {
			p, r := w.purge(now)
			purged += p
			remaining += r
		}
		if purged > 0 {
			log.Debug().
				Int("entries_purged", purged).
				Int("entries_remaining", remaining).
				Msg("rate limiter maps purged")
		}
	}
}
