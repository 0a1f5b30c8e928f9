// Package cache is a read-through cache on top of redis.
//
// Entries live under a namespace. Every namespace carries a generation
// counter that is part of each stored key, so Invalidate retires all entries
// of a namespace with a single INCR and stale entries simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Commands is the subset of *redis.Client the cache uses.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

var _ Commands = (*redis.Client)(nil)

type Cache struct {
	rdb    Commands
	prefix string
	group  singleflight.Group
	log    *logrus.Logger
}

func New(rdb Commands, prefix string, logger *logrus.Logger) *Cache {
	return &Cache{rdb: rdb, prefix: prefix, log: logger}
}

func (c *Cache) generationKey(namespace string) string {
	return c.prefix + "gen:" + namespace
}

func (c *Cache) key(ctx context.Context, namespace, suffix string) string {
	gen, err := c.rdb.Get(ctx, c.generationKey(namespace)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warnf("cache: reading generation of %s: %v", namespace, err)
	}
	return fmt.Sprintf("%s%s:g%d:%s", c.prefix, namespace, gen, suffix)
}

// GetOrFetch returns the cached value for namespace/suffix or calls fetch and
// stores its result for ttl. Concurrent misses on the same key share a single
// fetch. Redis failures degrade to calling fetch directly.
func GetOrFetch[T any](ctx context.Context, c *Cache, namespace, suffix string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil || c.rdb == nil {
		return fetch(ctx)
	}

	key := c.key(ctx, namespace, suffix)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.log.Warnf("cache: discarding undecodable entry %s", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warnf("cache: get %s: %v", key, err)
	}

	// Every caller waiting on key shares this fetch; it ignores the leader's
	// cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		val, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(val)
		if err != nil {
			c.log.Warnf("cache: encode %s: %v", key, err)
			return val, nil
		}
		if err := c.rdb.Set(shared, key, data, ttl).Err(); err != nil {
			c.log.Warnf("cache: set %s: %v", key, err)
		}
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate retires every entry stored under the given namespaces.
func (c *Cache) Invalidate(ctx context.Context, namespaces ...string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	var errs []error
	for _, ns := range namespaces {
		if err := c.rdb.Incr(ctx, c.generationKey(ns)).Err(); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", ns, err))
		}
	}
	return errors.Join(errs...)
}
