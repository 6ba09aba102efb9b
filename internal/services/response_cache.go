package services

import (
	"context"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ResponseCache stores generated chat replies keyed on (userID, normalized
// message prefix) with a fixed TTL. Only main-flow language model output is
// cached; onboarding prompts, clarifications and extraction acknowledgements
// never enter the cache.
type ResponseCache interface {
	Get(ctx context.Context, userID, message string) (string, bool)
	Set(ctx context.Context, userID, message, response string)
}

// MemoryResponseCache is the in-process cache implementation. go-cache gives
// a locked map with lazy TTL checks plus a background janitor sweep, so
// concurrent turns from the same user are safe.
type MemoryResponseCache struct {
	cache *gocache.Cache
}

// NewMemoryResponseCache creates an in-process response cache with the given TTL.
func NewMemoryResponseCache(ttl time.Duration) *MemoryResponseCache {
	return &MemoryResponseCache{
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Get returns the cached reply for an equivalent earlier message, if any.
func (c *MemoryResponseCache) Get(_ context.Context, userID, message string) (string, bool) {
	value, found := c.cache.Get(ResponseCacheKey(userID, message))
	if !found {
		return "", false
	}
	response, ok := value.(string)
	return response, ok
}

// Set stores a generated reply under the normalized message key.
func (c *MemoryResponseCache) Set(_ context.Context, userID, message, response string) {
	c.cache.SetDefault(ResponseCacheKey(userID, message), response)
}

// RedisResponseCache shares the response cache across instances. TTL is
// enforced by Redis key expiry.
type RedisResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResponseCache creates a Redis-backed response cache.
func NewRedisResponseCache(client *redis.Client, ttl time.Duration) *RedisResponseCache {
	return &RedisResponseCache{client: client, ttl: ttl}
}

// Get returns the cached reply for an equivalent earlier message, if any.
// Redis errors degrade to a miss; the cache is an optimization, not a
// dependency.
func (c *RedisResponseCache) Get(ctx context.Context, userID, message string) (string, bool) {
	value, err := c.client.Get(ctx, ResponseCacheKey(userID, message)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("⚠️ [CACHE] Redis get failed: %v", err)
		return "", false
	}
	return value, true
}

// Set stores a generated reply under the normalized message key.
func (c *RedisResponseCache) Set(ctx context.Context, userID, message, response string) {
	if err := c.client.Set(ctx, ResponseCacheKey(userID, message), response, c.ttl).Err(); err != nil {
		log.Printf("⚠️ [CACHE] Redis set failed: %v", err)
	}
}

// NewRedisClient connects to Redis with the connection pool settings used
// across the app and verifies the connection.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("✅ Redis connection established")
	return client, nil
}
