package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

func limitedRouter(max int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", RedisRateLimit(max, window), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return r
}

func hit(r http.Handler) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRedisRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	UseRedis(client)
	t.Cleanup(func() { UseRedis(nil) })

	r := limitedRouter(2, 2*time.Second)
	for i := 0; i < 2; i++ {
		if code := hit(r); code != 200 {
			t.Fatalf("request %d: expected 200 got %d", i, code)
		}
	}
	if code := hit(r); code != 429 {
		t.Fatalf("expected 429 got %d", code)
	}

	mr.FastForward(3 * time.Second)
	if code := hit(r); code != 200 {
		t.Fatalf("expected window reset, got %d", code)
	}
}

func TestRedisRateLimit_FailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	UseRedis(client)
	t.Cleanup(func() { UseRedis(nil) })
	mr.Close()

	r := limitedRouter(1, time.Minute)
	for i := 0; i < 3; i++ {
		if code := hit(r); code != 200 {
			t.Fatalf("expected fail-open 200 got %d", code)
		}
	}
}

func TestMemoryFallback(t *testing.T) {
	UseRedis(nil)
	fallback.reset()
	t.Cleanup(fallback.reset)

	r := limitedRouter(1, time.Minute)
	if code := hit(r); code != 200 {
		t.Fatalf("expected 200 got %d", code)
	}
	if code := hit(r); code != 429 {
		t.Fatalf("expected 429 got %d", code)
	}
}
