package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Key identifies a memoized query result: entity kind plus the filter
// discriminator, e.g. {posts tech}, {post hello-world-abc}, {comments <id>}.
type Key struct {
	Kind string
	Disc string
}

func (k Key) String() string { return k.Kind + ":" + k.Disc }

// Status is the per-key load state. Loading means a loader is in
// flight; Err is the outcome of the last finished load.
type Status struct {
	Loading bool
	Err     error
}

type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
	ttl time.Duration

	mu     sync.Mutex
	status map[string]Status
	gens   map[string]uint64 // bumped per invalidation; stale flights compare against it
}

func New(addr, pass string, db int, ttl time.Duration) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), ttl)
}

func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, status: make(map[string]Status), gens: make(map[string]uint64)}
}

// GetOrLoad returns the cached value for key, or runs load and stores
// the result. Concurrent calls for the same key while a load is in
// flight coalesce into a single loader invocation.
func (c *Cache) GetOrLoad(ctx context.Context, key Key, load func(context.Context) ([]byte, error)) ([]byte, error) {
	k := key.String()
	// 先读缓存
	if b, err := c.rdb.Get(ctx, k).Bytes(); err == nil {
		return b, nil
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(k, func() (any, error) {
		if b, e := c.rdb.Get(ctx, k).Bytes(); e == nil {
			return b, nil
		}
		c.mu.Lock()
		gen := c.gens[k]
		c.status[k] = Status{Loading: true}
		c.mu.Unlock()

		b, e := load(ctx)

		// 回源期间若发生失效，丢弃旧值不写回
		c.mu.Lock()
		c.status[k] = Status{Err: e}
		fresh := c.gens[k] == gen
		c.mu.Unlock()
		if e != nil {
			return nil, e
		}
		if fresh {
			_ = c.rdb.Set(ctx, k, b, c.ttl).Err()
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate marks the given keys stale. The next GetOrLoad for them
// re-runs the loader. A repeated Invalidate of the same key is a no-op.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	ks := make([]string, 0, len(keys))
	c.mu.Lock()
	for _, key := range keys {
		k := key.String()
		ks = append(ks, k)
		c.sf.Forget(k)
		c.gens[k]++
		delete(c.status, k)
	}
	c.mu.Unlock()
	return c.rdb.Del(ctx, ks...).Err()
}

// InvalidateKind drops every key of an entity kind, e.g. all (posts, *)
// list variants after a post mutation.
func (c *Cache) InvalidateKind(ctx context.Context, kind string) error {
	prefix := kind + ":"

	// 进行中的 flight 也要丢弃，否则变更后的读会合并到旧回源，
	// 且旧回源完成后不能再把变更前的值写回
	c.mu.Lock()
	for k := range c.status {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			c.sf.Forget(k)
			c.gens[k]++
			delete(c.status, k)
		}
	}
	c.mu.Unlock()

	iter := c.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var ks []string
	for iter.Next(ctx) {
		ks = append(ks, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	for _, k := range ks {
		c.sf.Forget(k)
	}
	if len(ks) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, ks...).Err()
}

// KeyStatus reports the load state of a single key.
func (c *Cache) KeyStatus(key Key) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status[key.String()]
}
