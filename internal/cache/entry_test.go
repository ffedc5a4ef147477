package cache

import (
	"context"
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/models"
)

func TestEntryKeyLayout(t *testing.T) {
	if got := authStates.key(uint(42)); got != "auth:user:42" {
		t.Fatalf("unexpected auth key: %s", got)
	}
	if got := checkoutReplays.key("guest:sess-1", "abc"); got != "checkout:idem:guest:sess-1:abc" {
		t.Fatalf("unexpected replay key: %s", got)
	}
}

func TestDisabledCacheFallsThrough(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	ctx := context.Background()

	state := BuildUserAuthState(&models.User{ID: 7, Status: "active", Role: "staff", TokenVersion: 3})
	if err := SetUserAuthState(ctx, state); err != nil {
		t.Fatalf("set should be a no-op, got %v", err)
	}
	if _, hit, err := GetUserAuthState(ctx, 7); hit || err != nil {
		t.Fatalf("disabled cache should miss, hit=%v err=%v", hit, err)
	}

	acquired, err := AcquireCheckoutInFlight(ctx, "user:7", "key-1")
	if err != nil || !acquired {
		t.Fatalf("disabled cache should allow checkout, acquired=%v err=%v", acquired, err)
	}
	if err := SetCheckoutReplay(ctx, "user:7", "key-1", CheckoutReplay{OrderID: 1, OrderNo: "ORD-1"}, time.Minute); err != nil {
		t.Fatalf("set replay should be a no-op, got %v", err)
	}
	if _, hit, _ := GetCheckoutReplay(ctx, "user:7", "key-1"); hit {
		t.Fatalf("disabled cache should not replay")
	}
}

func TestStoreKeyPrefix(t *testing.T) {
	s := store{prefix: "shop"}
	if got := s.key(" auth:user:1 "); got != "shop:auth:user:1" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := s.key(""); got != "shop" {
		t.Fatalf("empty key should map to prefix, got %s", got)
	}
	if err := InitRedis(nil); err != nil || Prefix() != "sf" || Enabled() {
		t.Fatalf("nil config should reset to disabled default store")
	}
}
