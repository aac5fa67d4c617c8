package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/todos")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("MAX_COVER_BYTES", "")

	cfg := Load()
	if cfg.PageSize != 15 {
		t.Fatalf("expected default page size 15, got %d", cfg.PageSize)
	}
	if cfg.MaxCoverBytes != 2048*1024 {
		t.Fatalf("expected 2 MiB cover limit, got %d", cfg.MaxCoverBytes)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("unexpected jwt ttl %s", cfg.JWTTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/todos")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PAGE_SIZE", "20")
	t.Setenv("PUBLIC_URL", "https://todo.example.com/")
	t.Setenv("API_RATE_LIMIT", "-3")

	cfg := Load()
	if cfg.PageSize != 20 {
		t.Fatalf("expected page size 20, got %d", cfg.PageSize)
	}
	if cfg.PublicURL != "https://todo.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.PublicURL)
	}
	if cfg.APIRateLimit != 120 {
		t.Fatalf("negative limit must fall back to default, got %d", cfg.APIRateLimit)
	}
}

func TestLoad_MemoryStoreNeedsNoDatabase(t *testing.T) {
	t.Setenv("STORE", "Memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	cfg := Load()
	if cfg.Store != StoreMemory {
		t.Fatalf("expected memory store, got %q", cfg.Store)
	}
}
