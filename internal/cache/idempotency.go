package cache

import (
	"context"
	"time"
)

const checkoutInFlightTTL = 30 * time.Second

// CheckoutReplay 已完成结算的幂等记录
type CheckoutReplay struct {
	OrderID uint   `json:"order_id"`
	OrderNo string `json:"order_no"`
}

var (
	checkoutReplays  = jsonEntry[CheckoutReplay]{prefix: "checkout:idem", ttl: 24 * time.Hour}
	checkoutInFlight = jsonEntry[struct{}]{prefix: "checkout:inflight", ttl: checkoutInFlightTTL}
)

// GetCheckoutReplay 查询幂等键对应的订单
func GetCheckoutReplay(ctx context.Context, scope, key string) (*CheckoutReplay, bool, error) {
	if key == "" {
		return nil, false, nil
	}
	return checkoutReplays.get(ctx, scope, key)
}

// SetCheckoutReplay 记录幂等键对应的订单
func SetCheckoutReplay(ctx context.Context, scope, key string, replay CheckoutReplay, ttl time.Duration) error {
	if key == "" || replay.OrderID == 0 {
		return nil
	}
	return checkoutReplays.set(ctx, replay, ttl, scope, key)
}

// AcquireCheckoutInFlight 占用幂等键，重复请求返回 false
func AcquireCheckoutInFlight(ctx context.Context, scope, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	return SetNX(ctx, checkoutInFlight.key(scope, key), "1", checkoutInFlight.ttl)
}

// ReleaseCheckoutInFlight 释放幂等键占用
func ReleaseCheckoutInFlight(ctx context.Context, scope, key string) error {
	if key == "" {
		return nil
	}
	return Del(ctx, checkoutInFlight.key(scope, key))
}
