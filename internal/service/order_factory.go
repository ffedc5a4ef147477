package service

import (
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
)

// orderDraft 结算事务内待落库的订单
type orderDraft struct {
	Order  *models.Order
	Items  []models.OrderItem
	Lines  []StockLine
	Coupon *models.Coupon
	Totals Totals
}

// orderDraftParams 构建订单所需的锁内数据
type orderDraftParams struct {
	Input          CheckoutInput
	Owner          CartOwner
	Cart           *models.Cart
	Locked         *LockedStock
	Coupon         *models.Coupon
	Options        OrderOptions
	Now            time.Time
	OrderNo        string
	IdempotencyKey string
}

// buildOrderDraft 按锁内快照生成订单与订单项，价格按价格策略取值
func buildOrderDraft(params orderDraftParams) *orderDraft {
	cart := params.Cart
	lines := make([]PricingLine, 0, len(cart.Items))
	stockLines := make([]StockLine, 0, len(cart.Items))
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		product := params.Locked.Products[cartItem.ProductID]
		var variant *models.ProductVariant
		if cartItem.VariantID > 0 {
			if v, ok := params.Locked.Variants[cartItem.VariantID]; ok {
				variant = &v
			}
		}
		unitPrice := cartItem.UnitPrice
		if params.Options.PricePolicy == constants.PricePolicyLive {
			unitPrice = resolveUnitPrice(&product, variant)
		}
		lines = append(lines, PricingLine{UnitPrice: unitPrice, Quantity: cartItem.Quantity, TaxRate: product.TaxRate})
		stockLines = append(stockLines, StockLine{ProductID: cartItem.ProductID, VariantID: cartItem.VariantID, Quantity: cartItem.Quantity})

		item := models.OrderItem{
			ProductID:     cartItem.ProductID,
			VariantID:     cartItem.VariantID,
			ProductName:   product.Name,
			SKU:           product.SKU,
			UnitPrice:     unitPrice,
			Quantity:      cartItem.Quantity,
			TaxRate:       product.TaxRate,
			Customization: cartItem.Customization,
			GiftMessage:   cartItem.GiftMessage,
			CreatedAt:     params.Now,
		}
		if variant != nil {
			item.VariantName = variant.Name
			if strings.TrimSpace(variant.SKU) != "" {
				item.SKU = variant.SKU
			}
		}
		items = append(items, item)
	}

	totals := Quote(lines, params.Coupon, params.Options.Pricing)
	for i := range items {
		items[i].LineSubtotal = totals.Lines[i].Subtotal
		items[i].TaxAmount = totals.Lines[i].Tax
		items[i].TotalPrice = totals.Lines[i].Total
	}

	billing := params.Input.Billing.toModel()
	shipping := billing
	if params.Input.Shipping != nil && !params.Input.Shipping.toModel().IsZero() {
		shipping = params.Input.Shipping.toModel()
	}
	expiresAt := params.Now.Add(params.Options.PaymentExpire)
	order := &models.Order{
		OrderNo:        params.OrderNo,
		UserID:         params.Owner.UserID,
		Status:         constants.OrderStatusPending,
		StockState:     constants.OrderStockReserved,
		Currency:       params.Options.Currency,
		Billing:        billing,
		Shipping:       shipping,
		SubtotalAmount: totals.Subtotal,
		TaxAmount:      totals.Tax,
		ShippingAmount: totals.Shipping,
		DiscountAmount: totals.Discount,
		TotalAmount:    totals.Total,
		Notes:          strings.TrimSpace(params.Input.Notes),
		ClientIP:       strings.TrimSpace(params.Input.ClientIP),
		UserAgent:      truncate(strings.TrimSpace(params.Input.UserAgent), 255),
		ExpiresAt:      &expiresAt,
		CreatedAt:      params.Now,
		UpdatedAt:      params.Now,
	}
	if params.Owner.IsGuest() {
		order.GuestSessionKey = strings.TrimSpace(params.Owner.SessionKey)
	}
	if params.IdempotencyKey != "" {
		key := params.IdempotencyKey
		order.IdempotencyKey = &key
	}
	var applied *models.Coupon
	if params.Coupon != nil && totals.CouponApplied {
		applied = params.Coupon
		order.CouponID = &params.Coupon.ID
		order.CouponCode = params.Coupon.Code
	}
	return &orderDraft{
		Order:  order,
		Items:  items,
		Lines:  stockLines,
		Coupon: applied,
		Totals: totals,
	}
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
