package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/things-api/internal/core/domain"
	"github.com/rl1809/things-api/internal/port"
)

const thingKeyPrefix = "thing:"

// CachedStore wraps another document store with a Redis read-through
// cache for single-document lookups. Searches and writes pass through;
// writes invalidate the cached copy. A failing cache never fails a read.
type CachedStore struct {
	inner  port.DocumentStore
	client *redis.Client
	ttl    time.Duration
}

func NewCachedStore(inner port.DocumentStore, client *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl}
}

func (s *CachedStore) Collection(ctx context.Context, name string) (port.Collection, error) {
	coll, err := s.inner.Collection(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachedCollection{inner: coll, client: s.client, ttl: s.ttl}, nil
}

func (s *CachedStore) Close() error {
	if err := s.client.Close(); err != nil {
		s.inner.Close()
		return err
	}
	return s.inner.Close()
}

type cachedCollection struct {
	inner  port.Collection
	client *redis.Client
	ttl    time.Duration
}

func thingKey(id int64) string {
	return fmt.Sprintf("%s%d", thingKeyPrefix, id)
}

func (c *cachedCollection) Find(ctx context.Context, q port.Query) (port.Cursor, error) {
	return c.inner.Find(ctx, q)
}

func (c *cachedCollection) FindOne(ctx context.Context, id int64) (*domain.Thing, error) {
	data, err := c.client.Get(ctx, thingKey(id)).Bytes()
	if err == nil {
		var thing domain.Thing
		if err := json.Unmarshal(data, &thing); err == nil {
			return &thing, nil
		}
		// corrupt cache entry, drop it and refetch
		c.client.Del(ctx, thingKey(id))
	}
	// redis.Nil and transport errors both fall through to the store

	thing, err := c.inner.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc, err := json.Marshal(thing); err == nil {
		c.client.Set(ctx, thingKey(id), doc, c.ttl)
	}
	return thing, nil
}

func (c *cachedCollection) Insert(ctx context.Context, thing *domain.Thing) error {
	// a fresh id cannot be cached yet, nothing to invalidate
	return c.inner.Insert(ctx, thing)
}

func (c *cachedCollection) Replace(ctx context.Context, id int64, thing *domain.Thing) error {
	if err := c.inner.Replace(ctx, id, thing); err != nil {
		return err
	}
	c.client.Del(ctx, thingKey(id))
	return nil
}

func (c *cachedCollection) Remove(ctx context.Context, id int64) error {
	if err := c.inner.Remove(ctx, id); err != nil {
		return err
	}
	c.client.Del(ctx, thingKey(id))
	return nil
}
