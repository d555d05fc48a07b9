package cache

import (
	"context"
	"encoding/json"
)

// GetOrLoadJSON is the typed convenience wrapper around GetOrLoad.
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key Key,
	load func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	b, err := c.GetOrLoad(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil {
		return zero, e
	}
	return out, nil
}
