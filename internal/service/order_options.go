package service

import (
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
)

// OrderOptions 结算与订单相关运行参数
type OrderOptions struct {
	Currency        string
	PricePolicy     string
	PaymentExpire   time.Duration
	CheckoutTimeout time.Duration
	IdempotencyTTL  time.Duration
	Pricing         PricingOptions
}

// NewOrderOptions 从配置构建订单参数
func NewOrderOptions(cfg config.OrderConfig) OrderOptions {
	opts := OrderOptions{
		Currency:        cfg.Currency,
		PricePolicy:     cfg.PricePolicy,
		PaymentExpire:   time.Duration(cfg.PaymentExpireMinutes) * time.Minute,
		CheckoutTimeout: time.Duration(cfg.CheckoutTimeoutSeconds) * time.Second,
		IdempotencyTTL:  time.Duration(cfg.IdempotencyTTLSeconds) * time.Second,
		Pricing: PricingOptions{
			ShippingFlat:     cfg.ShippingFlat(),
			FreeShippingOver: cfg.FreeShippingOver(),
		},
	}
	return opts.normalized()
}

func (o OrderOptions) normalized() OrderOptions {
	if o.Currency == "" {
		o.Currency = constants.DefaultCurrency
	}
	if o.PricePolicy != constants.PricePolicySnapshot {
		o.PricePolicy = constants.PricePolicyLive
	}
	if o.PaymentExpire <= 0 {
		o.PaymentExpire = 30 * time.Minute
	}
	if o.CheckoutTimeout <= 0 {
		o.CheckoutTimeout = 10 * time.Second
	}
	if o.IdempotencyTTL <= 0 {
		o.IdempotencyTTL = 24 * time.Hour
	}
	return o
}
