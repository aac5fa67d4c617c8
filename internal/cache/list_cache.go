package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// ListCache memoizes listing responses per owner. Entries are keyed by an
// owner generation number; bumping it invalidates every cached page at once.
//
// An owner whose invalidation could not reach Redis is marked stale. Reads
// for a stale owner skip the cache until the generation bump succeeds.
type ListCache struct {
	rdb *redis.Client
	ttl time.Duration

	mu    sync.Mutex
	stale map[int64]struct{}
}

// NewListCache returns a cache over rdb. A nil client yields a cache that
// never hits.
func NewListCache(rdb *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{rdb: rdb, ttl: ttl, stale: make(map[int64]struct{})}
}

func genKey(ownerID int64) string {
	return "todos:gen:" + strconv.FormatInt(ownerID, 10)
}

func entryKey(ownerID int64, gen int64, f domain.TaskFilter, page int) string {
	return "todos:list:" + strconv.FormatInt(ownerID, 10) + ":" + strconv.FormatInt(gen, 10) +
		":" + string(f.Status) + ":" + strconv.Itoa(page) + ":" + f.Search
}

func (c *ListCache) generation(ctx context.Context, ownerID int64) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey(ownerID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// Get looks up a cached page. On a miss it still returns the generation it
// saw, which the caller hands back to Set so a page loaded across an
// invalidation is stored under the old, already dead generation.
func (c *ListCache) Get(ctx context.Context, ownerID int64, f domain.TaskFilter, page int) (*domain.TaskList, int64, bool) {
	if c == nil || c.rdb == nil {
		return nil, 0, false
	}
	if !c.settle(ctx, ownerID) {
		return nil, -1, false
	}
	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		return nil, -1, false
	}
	raw, err := c.rdb.Get(ctx, entryKey(ownerID, gen, f, page)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.FromContext(ctx).Warn("list cache read failed", "error", err)
		}
		return nil, gen, false
	}

	var list domain.TaskList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, gen, false
	}
	return &list, gen, true
}

// Set stores a page under gen. A negative gen (unknown) skips the write.
func (c *ListCache) Set(ctx context.Context, ownerID, gen int64, f domain.TaskFilter, page int, list *domain.TaskList) {
	if c == nil || c.rdb == nil || gen < 0 {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, entryKey(ownerID, gen, f, page), raw, c.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("list cache write failed", "error", err)
	}
}

// Invalidate drops every cached page of the owner.
func (c *ListCache) Invalidate(ctx context.Context, ownerID int64) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, genKey(ownerID)).Err(); err != nil {
		logger.FromContext(ctx).Warn("list cache invalidation failed", "owner_id", ownerID, "error", err)
		c.mu.Lock()
		c.stale[ownerID] = struct{}{}
		c.mu.Unlock()
	}
}

// settle retries a failed invalidation for ownerID. It reports whether the
// owner's cached pages can be trusted again.
func (c *ListCache) settle(ctx context.Context, ownerID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.stale[ownerID]; !ok {
		return true
	}
	if err := c.rdb.Incr(ctx, genKey(ownerID)).Err(); err != nil {
		return false
	}
	delete(c.stale, ownerID)
	return true
}
