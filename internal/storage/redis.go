package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements the Cache interface using Redis
type RedisCache struct {
	client *redis.Client
	opts   *CacheOptions
	ctx    context.Context
}

// renewScript extends the lock TTL only while podID still holds it.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// releaseScript deletes the lock only while podID still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisCache connects to addr, given as scheme://[user:password@]host:port[/db]
func NewRedisCache(addr string, options ...RedisOption) (*RedisCache, error) {
	redisOpts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(redisOpts)

	cache := &RedisCache{
		client: client,
		opts:   DefaultCacheOptions(),
		ctx:    context.Background(),
	}

	// Apply options
	for _, option := range options {
		option(cache)
	}

	// Test connection
	if err := client.Ping(cache.ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return cache, nil
}

func parseRedisURL(addr string) (*redis.Options, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("can't parse url for redis: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("redis url %q has no host", addr)
	}

	var passwd string
	if u.User != nil {
		passwd, _ = u.User.Password()
	}
	db := 0
	if 1 < len(u.Path) {
		db, err = strconv.Atoi(u.Path[1:])
		if err != nil {
			return nil, fmt.Errorf("can't convert redis db %q into int: %w", u.Path[1:], err)
		}
	}

	network := u.Scheme
	if network == "redis" || network == "" {
		network = "tcp"
	}

	return &redis.Options{
		Network:  network,
		Addr:     u.Host,
		Password: passwd,
		DB:       db,
	}, nil
}

// RedisOption is a function that configures Redis cache options
type RedisOption func(*RedisCache)

// WithRedisOptions sets cache options
func WithRedisOptions(opts *CacheOptions) RedisOption {
	return func(rc *RedisCache) {
		rc.opts = opts
	}
}

// WithContext sets the context for cache operations
func WithContext(ctx context.Context) RedisOption {
	return func(rc *RedisCache) {
		rc.ctx = ctx
	}
}

func (rc *RedisCache) SetInventoryBackup(envelope *InventoryEnvelope) error {
	if envelope == nil {
		return fmt.Errorf("inventory envelope is nil")
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory envelope: %w", err)
	}

	return rc.client.Set(rc.ctx, inventoryBackupKey, data, rc.opts.DefaultTTL).Err()
}

// GetInventoryBackup returns nil, nil when no backup exists.
func (rc *RedisCache) GetInventoryBackup() (*InventoryEnvelope, error) {
	data, err := rc.client.Get(rc.ctx, inventoryBackupKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get backup from Redis: %w", err)
	}

	var envelope InventoryEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backup: %w", err)
	}

	return &envelope, nil
}

// Data versioning methods
func (rc *RedisCache) SetDataVersion(version *DataVersion) error {
	data, err := json.Marshal(version)
	if err != nil {
		return fmt.Errorf("failed to marshal data version: %w", err)
	}
	return rc.client.Set(rc.ctx, dataVersionKey, data, rc.opts.DefaultTTL).Err()
}

func (rc *RedisCache) GetDataVersion() (*DataVersion, error) {
	data, err := rc.client.Get(rc.ctx, dataVersionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get data version: %w", err)
	}

	var version DataVersion
	if err := json.Unmarshal(data, &version); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data version: %w", err)
	}

	return &version, nil
}

// Leader election methods
func (rc *RedisCache) AcquireLeaderLock(podID string, ttl time.Duration) (bool, error) {
	// SET NX EX is atomic
	result := rc.client.SetNX(rc.ctx, leaderLockKey, podID, ttl)
	if result.Err() != nil {
		return false, fmt.Errorf("failed to acquire leader lock: %w", result.Err())
	}
	return result.Val(), nil
}

// RenewLeadership extends the lock if podID still holds it and reports whether it does.
func (rc *RedisCache) RenewLeadership(podID string, ttl time.Duration) (bool, error) {
	n, err := renewScript.Run(rc.ctx, rc.client, []string{leaderLockKey}, podID, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to renew leader lock: %w", err)
	}
	return n == 1, nil
}

func (rc *RedisCache) ReleaseLeaderLock(podID string) error {
	if err := releaseScript.Run(rc.ctx, rc.client, []string{leaderLockKey}, podID).Err(); err != nil {
		return fmt.Errorf("failed to release leader lock: %w", err)
	}
	return nil
}

// CurrentLeader returns the pod holding the lock, or "" when nobody does.
func (rc *RedisCache) CurrentLeader() (string, error) {
	leader, err := rc.client.Get(rc.ctx, leaderLockKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to check current leader: %w", err)
	}
	return leader, nil
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
