package middleware

import (
	"net/http"
	"purohit/pkg/logger"
	"sync"
	"time"
)

// DeviceExtractor yields the rate-limit key for a request. Location writes are
// limited per priest device, not per IP: one priest phone behind a flaky
// mobile network must not starve another behind the same NAT.
type DeviceExtractor func(r *http.Request) string

func DefaultDeviceExtractor(r *http.Request) string {
	return r.Header.Get("X-Priest-ID")
}

type DeviceRateLimiter struct {
	mu        sync.RWMutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor DeviceExtractor
	log       *logger.Logger
	stopCh    chan struct{}
}

func NewDeviceRateLimiter(limit int, window time.Duration, extractor DeviceExtractor, log *logger.Logger) *DeviceRateLimiter {
	limiter := &DeviceRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *DeviceRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for device, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, device)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *DeviceRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *DeviceRateLimiter) Allow(device string) bool {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := rl.requests[device][:0]
	for _, ts := range rl.requests[device] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= rl.limit {
		rl.requests[device] = recent
		return false
	}

	rl.requests[device] = append(recent, now)
	return true
}

func DeviceRateLimit(limiter *DeviceRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			device := limiter.extractor(r)
			if device == "" {
				// Reads carry no device identity; only writes are limited.
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(device) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", requestIDFrom(r),
					"device", device,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
