package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// jsonEntry 同一前缀下的强类型 JSON 缓存项
type jsonEntry[T any] struct {
	prefix string
	ttl    time.Duration
}

func (e jsonEntry[T]) key(parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(e.prefix)
	for _, part := range parts {
		fmt.Fprintf(&b, ":%v", part)
	}
	return b.String()
}

func (e jsonEntry[T]) get(ctx context.Context, parts ...interface{}) (*T, bool, error) {
	var value T
	hit, err := GetJSON(ctx, e.key(parts...), &value)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &value, true, nil
}

// set ttl <= 0 时使用默认 TTL
func (e jsonEntry[T]) set(ctx context.Context, value T, ttl time.Duration, parts ...interface{}) error {
	if ttl <= 0 {
		ttl = e.ttl
	}
	return SetJSON(ctx, e.key(parts...), value, ttl)
}
