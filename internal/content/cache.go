package content

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache is a Redis-backed item cache for the hot delivery path, keyed by
// pool id, so repeat deliveries skip Postgres.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(kind Kind, id uint64) string {
	return fmt.Sprintf("content:%s:%d", kind, id)
}

// GetQuestion returns the cached question or nil on miss.
func (c *Cache) GetQuestion(ctx context.Context, id uint64) (*Question, error) {
	data, err := c.client.Get(ctx, c.key(KindQuestion, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var q Question
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// SetQuestion stores q under its pool id.
func (c *Cache) SetQuestion(ctx context.Context, q Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(KindQuestion, q.ID), data, c.ttl).Err()
}

// GetSong returns the cached song or nil on miss.
func (c *Cache) GetSong(ctx context.Context, id uint64) (*Song, error) {
	data, err := c.client.Get(ctx, c.key(KindSong, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s Song
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSong stores s under its pool id.
func (c *Cache) SetSong(ctx context.Context, s Song) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(KindSong, s.ID), data, c.ttl).Err()
}
