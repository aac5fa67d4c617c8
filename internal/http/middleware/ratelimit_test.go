package middleware

import (
	"testing"
	"time"
)

func TestMemoryLimiter_SweepKeepsEntriesOfLongerWindows(t *testing.T) {
	l := newMemoryLimiter()
	l.hit("rl:10:1.2.3.4", 10*time.Second)
	l.hit("user_rl:7:60", time.Minute)
	l.hit("user_rl:7:60", time.Minute)

	l.mu.Lock()
	l.sweep(time.Now().Add(30 * time.Second))
	_, ipKept := l.clients["rl:10:1.2.3.4"]
	_, userKept := l.clients["user_rl:7:60"]
	l.mu.Unlock()

	if ipKept {
		t.Fatalf("expired 10s entry should be swept")
	}
	if !userKept {
		t.Fatalf("1m entry swept before its own window ended")
	}
	if got := l.hit("user_rl:7:60", time.Minute); got != 3 {
		t.Fatalf("expected count to continue at 3, got %d", got)
	}
}
