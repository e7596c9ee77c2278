package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pollbox/internal/domain/poll"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - polls:owner:{user_id} - owner poll listing, short TTL, invalidated on
//   every mutation by that owner

// CacheConfig contains configuration for caching
type CacheConfig struct {
	PollListTTL time.Duration // TTL for the owner poll-list cache
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		PollListTTL: 60 * time.Second,
	}
}

// CacheStore caches owner poll listings in Redis. A miss or any Redis
// failure falls back to the database; the cache never fails a request.
type CacheStore struct {
	client *goredis.Client
	config CacheConfig
}

// NewCacheStore creates a new cache store
func NewCacheStore(client *goredis.Client, config CacheConfig) *CacheStore {
	return &CacheStore{
		client: client,
		config: config,
	}
}

// GetOwnerPolls retrieves a cached owner listing. (nil, nil) is a miss.
func (c *CacheStore) GetOwnerPolls(ctx context.Context, ownerID uuid.UUID) ([]poll.Poll, error) {
	data, err := c.client.Get(ctx, ownerPollsKey(ownerID)).Result()
	if err == goredis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var polls []poll.Poll
	if err := json.Unmarshal([]byte(data), &polls); err != nil {
		return nil, err
	}
	return polls, nil
}

// SetOwnerPolls stores an owner listing.
func (c *CacheStore) SetOwnerPolls(ctx context.Context, ownerID uuid.UUID, polls []poll.Poll) error {
	data, err := json.Marshal(polls)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ownerPollsKey(ownerID), data, c.config.PollListTTL).Err()
}

// InvalidateOwnerPolls drops the cached listing after a mutation.
func (c *CacheStore) InvalidateOwnerPolls(ctx context.Context, ownerID uuid.UUID) error {
	return c.client.Del(ctx, ownerPollsKey(ownerID)).Err()
}

func ownerPollsKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("polls:owner:%s", ownerID.String())
}
