package cache

import (
	"context"
	"testing"
	"time"

	"todo_webapp/internal/domain"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*ListCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewListCache(rdb, time.Minute), mr
}

func TestListCache_HitAndInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	f := domain.TaskFilter{Search: "gr", Status: domain.StatusAll}

	_, gen, ok := c.Get(ctx, 1, f, 1)
	if ok {
		t.Fatalf("expected miss on empty cache")
	}

	list := &domain.TaskList{
		Todos: domain.NewTaskPage([]*domain.Task{{ID: 5, UserID: 1, Title: "Groceries"}}, 1, 15, 1),
		Stats: domain.TaskStats{Total: 1, Pending: 1},
	}
	c.Set(ctx, 1, gen, f, 1, list)

	got, _, ok := c.Get(ctx, 1, f, 1)
	if !ok {
		t.Fatalf("expected hit after set")
	}
	if len(got.Todos.Data) != 1 || got.Todos.Data[0].Title != "Groceries" || got.Stats.Pending != 1 {
		t.Fatalf("unexpected cached value %+v", got)
	}

	// other owners and other filters are separate entries
	if _, _, ok := c.Get(ctx, 2, f, 1); ok {
		t.Fatalf("owner 2 must not see owner 1 entries")
	}
	if _, _, ok := c.Get(ctx, 1, domain.TaskFilter{Status: domain.StatusFinished}, 1); ok {
		t.Fatalf("different filter must miss")
	}

	c.Invalidate(ctx, 1)
	if _, _, ok := c.Get(ctx, 1, f, 1); ok {
		t.Fatalf("expected miss after invalidate")
	}
}

func TestListCache_SetAfterInvalidateIsDead(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	f := domain.TaskFilter{Status: domain.StatusAll}

	_, gen, _ := c.Get(ctx, 1, f, 1)
	// a mutation lands while the page is being loaded
	c.Invalidate(ctx, 1)
	c.Set(ctx, 1, gen, f, 1, &domain.TaskList{Todos: domain.NewTaskPage(nil, 0, 15, 1)})

	if _, _, ok := c.Get(ctx, 1, f, 1); ok {
		t.Fatalf("page loaded before the invalidation must not be served")
	}
}

func TestListCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	f := domain.TaskFilter{Status: domain.StatusAll}

	c.Set(ctx, 1, 0, f, 1, &domain.TaskList{Todos: domain.NewTaskPage(nil, 0, 15, 1)})
	mr.FastForward(2 * time.Minute)

	if _, _, ok := c.Get(ctx, 1, f, 1); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestListCache_NilClient(t *testing.T) {
	c := NewListCache(nil, time.Minute)
	ctx := context.Background()
	c.Set(ctx, 1, 0, domain.TaskFilter{}, 1, &domain.TaskList{})
	c.Invalidate(ctx, 1)
	if _, _, ok := c.Get(ctx, 1, domain.TaskFilter{}, 1); ok {
		t.Fatalf("nil client must never hit")
	}
}

func TestConnect_EmptyAddr(t *testing.T) {
	if Connect("", "", 0) != nil {
		t.Fatalf("expected nil client for empty addr")
	}
}

func TestListCache_FailedInvalidateBypassesCache(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	f := domain.TaskFilter{Status: domain.StatusPending}

	_, gen, _ := c.Get(ctx, 1, f, 1)
	c.Set(ctx, 1, gen, f, 1, &domain.TaskList{Todos: domain.NewTaskPage(nil, 1, 15, 1)})

	mr.SetError("transient")
	c.Invalidate(ctx, 1)

	// still unreachable: no hit and no write either
	_, gen, ok := c.Get(ctx, 1, f, 1)
	if ok || gen >= 0 {
		t.Fatalf("stale owner must miss while redis is down: ok=%v gen=%d", ok, gen)
	}
	mr.SetError("")

	if _, _, ok := c.Get(ctx, 1, f, 1); ok {
		t.Fatalf("page cached before the failed invalidation must not be served")
	}

	// once settled the cache works again
	_, gen, _ = c.Get(ctx, 1, f, 1)
	c.Set(ctx, 1, gen, f, 1, &domain.TaskList{Todos: domain.NewTaskPage(nil, 0, 15, 1)})
	if _, _, ok := c.Get(ctx, 1, f, 1); !ok {
		t.Fatalf("expected hit after the owner settled")
	}
}
