package service

import (
	"testing"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestQuoteIsDeterministic(t *testing.T) {
	lines := []PricingLine{
		{UnitPrice: models.MustMoney("10.00"), Quantity: 2, TaxRate: decimal.NewFromInt(5)},
		{UnitPrice: models.MustMoney("3.33"), Quantity: 1, TaxRate: decimal.Zero},
	}
	for i := 0; i < 3; i++ {
		totals := Quote(lines, nil, PricingOptions{})
		if totals.Subtotal.String() != "23.33" {
			t.Fatalf("subtotal want 23.33 got %s", totals.Subtotal)
		}
		if totals.Tax.String() != "1.00" {
			t.Fatalf("tax want 1.00 got %s", totals.Tax)
		}
		if totals.Discount.String() != "0.00" || totals.Total.String() != "24.33" {
			t.Fatalf("unexpected totals: discount=%s total=%s", totals.Discount, totals.Total)
		}
	}
}

func TestQuoteFixedCouponClampsToSubtotal(t *testing.T) {
	lines := []PricingLine{{UnitPrice: models.MustMoney("30.00"), Quantity: 1}}
	coupon := &models.Coupon{DiscountType: constants.CouponTypeFixed, DiscountValue: models.MustMoney("50.00")}

	totals := Quote(lines, coupon, PricingOptions{})
	if !totals.CouponApplied {
		t.Fatalf("coupon should apply")
	}
	if totals.Discount.String() != "30.00" {
		t.Fatalf("discount want 30.00 got %s", totals.Discount)
	}
	if totals.Total.String() != "0.00" {
		t.Fatalf("total want 0.00 got %s", totals.Total)
	}
}

func TestQuotePercentageCouponCapped(t *testing.T) {
	lines := []PricingLine{{UnitPrice: models.MustMoney("99.99"), Quantity: 2}}
	coupon := &models.Coupon{
		DiscountType:          constants.CouponTypePercentage,
		DiscountValue:         models.MustMoney("15"),
		MaximumDiscountAmount: models.MustMoney("20.00"),
	}
	totals := Quote(lines, coupon, PricingOptions{})
	if totals.Discount.String() != "20.00" {
		t.Fatalf("capped discount want 20.00 got %s", totals.Discount)
	}

	coupon.MaximumDiscountAmount = models.MustMoney("0")
	totals = Quote(lines, coupon, PricingOptions{})
	// 199.98 * 15% = 29.997 -> 30.00
	if totals.Discount.String() != "30.00" {
		t.Fatalf("uncapped discount want 30.00 got %s", totals.Discount)
	}
	if totals.Total.String() != "169.98" {
		t.Fatalf("total want 169.98 got %s", totals.Total)
	}
}

func TestQuoteFreeShippingCoupon(t *testing.T) {
	lines := []PricingLine{{UnitPrice: models.MustMoney("12.00"), Quantity: 1}}
	opts := PricingOptions{ShippingFlat: decimal.RequireFromString("5.99")}

	totals := Quote(lines, nil, opts)
	if totals.Shipping.String() != "5.99" || totals.Total.String() != "17.99" {
		t.Fatalf("unexpected shipping totals: shipping=%s total=%s", totals.Shipping, totals.Total)
	}

	coupon := &models.Coupon{DiscountType: constants.CouponTypeFreeShipping}
	totals = Quote(lines, coupon, opts)
	if !totals.FreeShipping || totals.Shipping.String() != "0.00" {
		t.Fatalf("free shipping coupon should waive shipping, got %s", totals.Shipping)
	}
	if totals.Discount.String() != "0.00" || totals.Total.String() != "12.00" {
		t.Fatalf("free shipping should not discount products: discount=%s total=%s", totals.Discount, totals.Total)
	}
}

func TestQuoteCouponMinimumNotMet(t *testing.T) {
	lines := []PricingLine{{UnitPrice: models.MustMoney("9.99"), Quantity: 1}}
	coupon := &models.Coupon{
		DiscountType:          constants.CouponTypeFixed,
		DiscountValue:         models.MustMoney("5.00"),
		MinimumPurchaseAmount: models.MustMoney("10.00"),
	}
	totals := Quote(lines, coupon, PricingOptions{})
	if totals.CouponApplied || totals.Discount.String() != "0.00" {
		t.Fatalf("coupon below minimum should not apply: %+v", totals)
	}
}

func TestQuoteFreeShippingThreshold(t *testing.T) {
	lines := []PricingLine{{UnitPrice: models.MustMoney("50.00"), Quantity: 1}}
	opts := PricingOptions{
		ShippingFlat:     decimal.RequireFromString("4.50"),
		FreeShippingOver: decimal.RequireFromString("50"),
	}
	if got := Quote(lines, nil, opts).Shipping.String(); got != "0.00" {
		t.Fatalf("threshold reached should waive shipping, got %s", got)
	}
	if got := Quote(nil, nil, opts).Shipping.String(); got != "0.00" {
		t.Fatalf("empty cart should not charge shipping, got %s", got)
	}
}
