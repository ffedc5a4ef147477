package service

import (
	"errors"
	"testing"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestCouponResolveChecksWindowAndLimits(t *testing.T) {
	f := setupServiceFixture(t, "coupon_window", nil)
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	f.seedCoupon(t, models.Coupon{Code: "LATER", DiscountType: constants.CouponTypeFixed, DiscountValue: models.MustMoney("1"), ValidFrom: &future})
	f.seedCoupon(t, models.Coupon{Code: "GONE", DiscountType: constants.CouponTypeFixed, DiscountValue: models.MustMoney("1"), ValidUntil: &past})
	f.seedCoupon(t, models.Coupon{Code: "USEDUP", DiscountType: constants.CouponTypeFixed, DiscountValue: models.MustMoney("1"), UsageLimit: 2, UsageCount: 2})
	paused := f.seedCoupon(t, models.Coupon{Code: "PAUSED", DiscountType: constants.CouponTypeFixed, DiscountValue: models.MustMoney("1")})
	if err := f.db.Model(&models.Coupon{}).Where("id = ?", paused.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate coupon failed: %v", err)
	}

	cases := map[string]error{
		"LATER":   ErrCouponNotStarted,
		"GONE":    ErrCouponExpired,
		"USEDUP":  ErrCouponUsageLimit,
		"PAUSED":  ErrCouponInactive,
		"MISSING": ErrCouponNotFound,
	}
	for code, want := range cases {
		if _, err := f.coupons.Resolve(code, 1, now); !errors.Is(err, want) {
			t.Fatalf("coupon %s want %v got %v", code, want, err)
		}
	}
}

func TestCouponRedeemEnforcesUsageLimit(t *testing.T) {
	f := setupServiceFixture(t, "coupon_redeem", nil)
	coupon := f.seedCoupon(t, models.Coupon{
		Code:          "ONCE",
		DiscountType:  constants.CouponTypeFixed,
		DiscountValue: models.MustMoney("3"),
		UsageLimit:    1,
	})

	if err := f.coupons.Redeem(coupon, 1, 100, models.MustMoney("3")); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	if err := f.coupons.Redeem(coupon, 2, 101, models.MustMoney("3")); !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("second redeem should hit the limit, got %v", err)
	}
	if err := f.coupons.Redeem(nil, 1, 102, models.Money{}); err != nil {
		t.Fatalf("nil coupon redeem should be a no-op, got %v", err)
	}
}

func TestCheckMinimum(t *testing.T) {
	coupon := &models.Coupon{MinimumPurchaseAmount: models.MustMoney("25.00")}
	if err := CheckMinimum(coupon, decimal.RequireFromString("24.99")); !errors.Is(err, ErrCouponMinAmount) {
		t.Fatalf("below minimum should fail, got %v", err)
	}
	if err := CheckMinimum(coupon, decimal.RequireFromString("25.00")); err != nil {
		t.Fatalf("exact minimum should pass, got %v", err)
	}
	if err := CheckMinimum(nil, decimal.Zero); err != nil {
		t.Fatalf("nil coupon should pass, got %v", err)
	}
}
