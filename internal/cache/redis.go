package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKey          = "site:version"
	invalidationChannel = "site:invalidate"
	entryPrefix         = "site:"
)

// RedisStore 在所有服务进程之间共享缓存。
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 连接 redisURL 并检查连通性。
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient 包装已有的客户端。
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Version(ctx context.Context) (int64, error) {
	raw, err := s.client.Get(ctx, versionKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache version: %w", err)
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cache version: %w", err)
	}
	return version, nil
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) (int64, bool, error) {
	version, err := s.Version(ctx)
	if err != nil {
		return 0, false, err
	}

	payload, err := s.client.Get(ctx, versionedKey(entryPrefix, version, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return version, false, nil
	}
	if err != nil {
		return version, false, fmt.Errorf("read cache entry: %w", err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return version, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return version, true, nil
}

// SetAt 以 version 写入 value。过期版本的键不会再被读取，由 TTL 回收。
func (s *RedisStore) SetAt(ctx context.Context, version int64, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, versionedKey(entryPrefix, version, key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Invalidate 递增站点版本号，并在失效频道上广播原因。
func (s *RedisStore) Invalidate(ctx context.Context, reason string) error {
	version, err := s.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return fmt.Errorf("bump cache version: %w", err)
	}
	message := fmt.Sprintf("%d:%s", version, reason)
	if err := s.client.Publish(ctx, invalidationChannel, message).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Subscribe 订阅缓存失效广播。
func (s *RedisStore) Subscribe(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, invalidationChannel)
}

// WatchInvalidations 对每条失效广播调用 fn，直到 ctx 结束后关闭订阅。
func (s *RedisStore) WatchInvalidations(ctx context.Context, fn func(message string)) {
	sub := s.Subscribe(ctx)
	defer sub.Close()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			fn(msg.Payload)
		}
	}
}

// Ping 检查 Redis 是否可达
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
