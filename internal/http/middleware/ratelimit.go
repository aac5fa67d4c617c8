package middleware

import (
	"sync"
	"time"
)

type clientInfo struct {
	start  time.Time
	window time.Duration
	count  int
}

// memoryLimiter is the fixed-window fallback used when Redis is not
// configured. Counts are per process. Limiters with different windows share
// it, so every entry expires by its own window.
type memoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	calls   int
}

var fallback = newMemoryLimiter()

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{clients: make(map[string]*clientInfo)}
}

// hit counts one request for key and returns the count in the current window.
func (l *memoryLimiter) hit(key string, window time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.calls++
	if l.calls%1000 == 0 {
		l.sweep(now)
	}

	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.start) > ci.window {
		l.clients[key] = &clientInfo{start: now, window: window, count: 1}
		return 1
	}
	ci.count++
	return ci.count
}

func (l *memoryLimiter) sweep(now time.Time) {
	for k, ci := range l.clients {
		if now.Sub(ci.start) > ci.window {
			delete(l.clients, k)
		}
	}
}

func (l *memoryLimiter) reset() {
	l.mu.Lock()
	l.clients = make(map[string]*clientInfo)
	l.mu.Unlock()
}
