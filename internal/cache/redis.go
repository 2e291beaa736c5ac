package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "cueloop:"
	pingTimeout      = 5 * time.Second
	opTimeout        = 2 * time.Second
)

func init() {
	Register("redis", newRedisCache)
}

// redisCache shares parsed payloads through Redis 7.4+ or Valkey 8+.
//
// Two keys hold the whole cache:
//
//   - <prefix>data: a hash of key to payload. Each field carries its own
//     TTL through HPEXPIRE, so the server drops expired payloads itself.
//   - <prefix>lru: a sorted set of key to last-access time in microseconds.
//
// Reads and writes run as Lua scripts so recency updates and evictions are
// atomic. Sorted-set members whose hash field already expired are removed
// during the next eviction pass.
type redisCache struct {
	client  *redis.Client
	ttl     time.Duration
	maxSize int
	onEvict EvictCallback
	logger  Logger
	dataKey string
	lruKey  string
}

// touchScript returns a payload and bumps its recency on hit.
//
// KEYS: data hash, lru set. ARGV: now (µs), key.
var touchScript = redis.NewScript(`
local val = redis.call('HGET', KEYS[1], ARGV[2])
if val then
    redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
end
return val
`)

// storeScript writes a payload with its TTL, records recency and pops the
// least recently used keys while the set exceeds the size bound.
//
// KEYS: data hash, lru set. ARGV: payload, now (µs), key, max size, TTL (ms).
// Returns the evicted keys.
var storeScript = redis.NewScript(`
local key     = ARGV[3]
local maxSize = tonumber(ARGV[4])
local ttlMs   = tonumber(ARGV[5])

redis.call('HSET', KEYS[1], key, ARGV[1])
redis.call('HPEXPIRE', KEYS[1], ttlMs, 'FIELDS', 1, key)
redis.call('ZADD', KEYS[2], ARGV[2], key)

local size = redis.call('ZCARD', KEYS[2])
local evicted = {}
while size > maxSize do
    local oldest = redis.call('ZPOPMIN', KEYS[2], 1)
    if #oldest == 0 then break end
    redis.call('HDEL', KEYS[1], oldest[1])
    table.insert(evicted, oldest[1])
    size = size - 1
end

return evicted
`)

func newRedisCache(cfg ProviderConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &redisCache{
		client:  client,
		ttl:     cfg.TTL,
		maxSize: cfg.Size,
		onEvict: cfg.OnEvict,
		logger:  cfg.Logger,
		dataKey: prefix + "data",
		lruKey:  prefix + "lru",
	}, nil
}

func (r *redisCache) keys() []string {
	return []string{r.dataKey, r.lruKey}
}

func (r *redisCache) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, err)
	}
}

func nowMicros() string {
	return strconv.FormatInt(time.Now().UnixMicro(), 10)
}

func (r *redisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	result, err := touchScript.Run(ctx, r.client, r.keys(), nowMicros(), key).Text()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logError("redis payload cache Get failed", err)
		}
		return nil, false
	}
	return []byte(result), true
}

func (r *redisCache) Set(key string, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	evicted, err := storeScript.Run(ctx, r.client, r.keys(),
		value,
		nowMicros(),
		key,
		strconv.Itoa(r.maxSize),
		strconv.FormatInt(r.ttl.Milliseconds(), 10),
	).StringSlice()
	if err != nil {
		r.logError("redis payload cache Set failed", err)
		return
	}

	// Evicted values are not fetched back; callbacks only get the key.
	if r.onEvict != nil {
		for _, k := range evicted {
			r.onEvict(k, nil)
		}
	}
}

func (r *redisCache) Contains(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	found, err := r.client.HExists(ctx, r.dataKey, key).Result()
	if err != nil {
		r.logError("redis payload cache Contains failed", err)
		return false
	}
	return found
}

func (r *redisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	n, err := r.client.HLen(ctx, r.dataKey).Result()
	if err != nil {
		r.logError("redis payload cache Len failed", err)
		return 0
	}
	return int(n)
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
