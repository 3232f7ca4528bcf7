// Package cache shares a stack's asset bucket name between instances.
// Only the bucket is stored: the url prefix depends on each instance's own
// override and provider domain.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "assets:bucket:"

// BaseURLCache implements assets.SharedCache on top of redis.
type BaseURLCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBaseURLCache(client *redis.Client, ttl time.Duration) *BaseURLCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BaseURLCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *BaseURLCache) Get(ctx context.Context, stackName string) (string, bool, error) {
	v, err := c.client.Get(ctx, Key(stackName)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (c *BaseURLCache) Set(ctx context.Context, stackName, bucket string) error {
	return c.client.Set(ctx, Key(stackName), bucket, c.ttl).Err()
}

// Delete drops the shared entry; Resolver.Reset calls it.
func (c *BaseURLCache) Delete(ctx context.Context, stackName string) error {
	return c.client.Del(ctx, Key(stackName)).Err()
}

// Key is the redis key for a stack.
func Key(stackName string) string {
	return keyPrefix + stackName
}
