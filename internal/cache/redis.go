package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "sf"
	pingTimeout   = 3 * time.Second
)

// store 进程级 Redis 连接；client 为 nil 表示缓存关闭，所有读取都视为未命中
type store struct {
	client *redis.Client
	prefix string
}

var current = store{prefix: defaultPrefix}

// InitRedis 初始化 Redis 客户端
// 连通性检查失败只返回错误，客户端仍保留，Redis 恢复后自动可用
func InitRedis(cfg *config.RedisConfig) error {
	current = store{prefix: defaultPrefix}
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	if prefix := strings.TrimSpace(cfg.Prefix); prefix != "" {
		current.prefix = prefix
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	current.client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := current.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", current.client.Options().Addr, err)
	}
	return nil
}

// Enabled 缓存是否启用
func Enabled() bool {
	return current.client != nil
}

// Client 原始客户端，缓存关闭时为 nil
func Client() *redis.Client {
	return current.client
}

// Prefix 所有 key 的公共前缀
func Prefix() string {
	return current.prefix
}

// Close 关闭客户端
func Close() error {
	if current.client == nil {
		return nil
	}
	return current.client.Close()
}

func (s store) key(key string) string {
	if key = strings.TrimSpace(key); key == "" {
		return s.prefix
	}
	return s.prefix + ":" + key
}

// GetJSON 读取 JSON 缓存，返回是否命中
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if current.client == nil {
		return false, nil
	}
	raw, err := current.client.Get(ctx, current.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if current.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return current.client.Set(ctx, current.key(key), payload, ttl).Err()
}

// SetNX 仅在 key 不存在时写入；缓存关闭时视为写入成功
func SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if current.client == nil {
		return true, nil
	}
	return current.client.SetNX(ctx, current.key(key), value, ttl).Result()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	if current.client == nil {
		return nil
	}
	return current.client.Del(ctx, current.key(key)).Err()
}
