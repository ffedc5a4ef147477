package service

import (
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PricingLine 计价行
type PricingLine struct {
	UnitPrice models.Money
	Quantity  int
	TaxRate   decimal.Decimal // 百分比
}

// PricingOptions 计价选项
type PricingOptions struct {
	ShippingFlat     decimal.Decimal
	FreeShippingOver decimal.Decimal // 0 表示不包邮
}

// LineTotals 单行计价结果
type LineTotals struct {
	Subtotal models.Money
	Tax      models.Money
	Total    models.Money
}

// Totals 计价结果，各金额只在最后一步按 half-up 取整到分
type Totals struct {
	Subtotal      models.Money
	Tax           models.Money
	Shipping      models.Money
	Discount      models.Money
	Total         models.Money
	CouponApplied bool
	FreeShipping  bool
	Lines         []LineTotals
}

// Quote 计算小计、税额、运费、优惠与应付金额（纯函数）
func Quote(lines []PricingLine, coupon *models.Coupon, opts PricingOptions) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	lineTotals := make([]LineTotals, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			lineTotals = append(lineTotals, LineTotals{})
			continue
		}
		lineSubtotal := line.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity)))
		lineTax := lineSubtotal.Mul(line.TaxRate).Div(hundred)
		subtotal = subtotal.Add(lineSubtotal)
		tax = tax.Add(lineTax)
		lineTotals = append(lineTotals, LineTotals{
			Subtotal: models.NewMoneyFromDecimal(lineSubtotal),
			Tax:      models.NewMoneyFromDecimal(lineTax),
			Total:    models.NewMoneyFromDecimal(lineSubtotal.Add(lineTax)),
		})
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() && opts.ShippingFlat.IsPositive() {
		shipping = opts.ShippingFlat
		if opts.FreeShippingOver.IsPositive() && subtotal.GreaterThanOrEqual(opts.FreeShippingOver) {
			shipping = decimal.Zero
		}
	}

	discount := decimal.Zero
	applied := false
	freeShipping := false
	if coupon != nil && couponMinimumMet(coupon, subtotal) {
		applied = true
		discount, freeShipping = couponDiscount(coupon, subtotal)
		if freeShipping {
			shipping = decimal.Zero
		}
	}

	result := Totals{
		Subtotal:      models.NewMoneyFromDecimal(subtotal),
		Tax:           models.NewMoneyFromDecimal(tax),
		Shipping:      models.NewMoneyFromDecimal(shipping),
		Discount:      models.NewMoneyFromDecimal(discount),
		CouponApplied: applied,
		FreeShipping:  freeShipping,
		Lines:         lineTotals,
	}
	total := result.Subtotal.Decimal.
		Add(result.Tax.Decimal).
		Add(result.Shipping.Decimal).
		Sub(result.Discount.Decimal)
	if total.IsNegative() {
		total = decimal.Zero
	}
	result.Total = models.NewMoneyFromDecimal(total)
	return result
}

func couponMinimumMet(coupon *models.Coupon, subtotal decimal.Decimal) bool {
	minimum := coupon.MinimumPurchaseAmount.Decimal
	return !minimum.IsPositive() || subtotal.GreaterThanOrEqual(minimum)
}

// couponDiscount 返回商品优惠金额以及是否免运费
func couponDiscount(coupon *models.Coupon, subtotal decimal.Decimal) (decimal.Decimal, bool) {
	value := coupon.DiscountValue.Decimal
	switch coupon.DiscountType {
	case constants.CouponTypePercentage:
		discount := subtotal.Mul(value).Div(hundred)
		if limit := coupon.MaximumDiscountAmount.Decimal; limit.IsPositive() && discount.GreaterThan(limit) {
			discount = limit
		}
		return clampDiscount(discount, subtotal), false
	case constants.CouponTypeFixed:
		return clampDiscount(value, subtotal), false
	case constants.CouponTypeFreeShipping:
		return decimal.Zero, true
	default:
		return decimal.Zero, false
	}
}

func clampDiscount(discount, subtotal decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}
