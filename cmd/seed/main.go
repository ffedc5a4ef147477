package main

import (
	"context"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/service"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	name     string
	slug     string
	sku      string
	price    string
	taxRate  string
	stock    int
	variants []seedVariant
}

type seedVariant struct {
	name       string
	sku        string
	adjustment string
	stock      int
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBOptions{
		Pool: models.DBPoolConfig{
			MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
		},
		LogLevel: cfg.Database.LogLevel,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 种子数据不投递异步任务
	cfg.Queue.Enabled = false
	container, err := provider.NewContainer(cfg, models.DB, provider.Options{})
	if err != nil {
		stdLog.Fatalf("Failed to build container: %v", err)
	}
	defer func() { _ = container.Close() }()

	products := []seedProduct{
		{
			name:    "Ceramic Pour-Over Set",
			slug:    "ceramic-pour-over-set",
			sku:     "CPO-001",
			price:   "39.90",
			taxRate: "0.08",
			stock:   25,
		},
		{
			name:    "Linen Apron",
			slug:    "linen-apron",
			sku:     "APR-100",
			price:   "24.00",
			taxRate: "0.08",
			variants: []seedVariant{
				{name: "Sand", sku: "APR-100-SND", adjustment: "0", stock: 12},
				{name: "Charcoal", sku: "APR-100-CHR", adjustment: "2.00", stock: 8},
			},
		},
		{
			name:    "Cast Iron Skillet",
			slug:    "cast-iron-skillet",
			sku:     "CIS-260",
			price:   "58.00",
			taxRate: "0.08",
			stock:   3,
		},
	}

	ctx := context.Background()
	for _, item := range products {
		existing, err := container.ProductRepo.GetBySlug(item.slug)
		if err != nil {
			stdLog.Printf("Failed to check product %s: %v", item.slug, err)
			continue
		}
		if existing != nil {
			stdLog.Printf("Product already exists: %s", item.slug)
			continue
		}
		input := service.ProductInput{
			Name:        item.name,
			Slug:        item.slug,
			SKU:         item.sku,
			PriceAmount: models.MustMoney(item.price),
			TaxRate:     decimal.RequireFromString(item.taxRate),
		}
		if len(item.variants) == 0 {
			stock := item.stock
			input.InitialStock = &stock
		}
		product, err := container.ProductService.Create(ctx, input)
		if err != nil {
			stdLog.Printf("Failed to create product %s: %v", item.slug, err)
			continue
		}
		stdLog.Printf("Created product: %s", item.slug)

		for _, variant := range item.variants {
			stock := variant.stock
			if _, err := container.ProductService.AddVariant(ctx, product.ID, service.VariantInput{
				Name:            variant.name,
				SKU:             variant.sku,
				PriceAdjustment: models.MustMoney(variant.adjustment),
				InitialStock:    &stock,
			}); err != nil {
				stdLog.Printf("Failed to create variant %s: %v", variant.sku, err)
				continue
			}
			stdLog.Printf("Created variant: %s", variant.sku)
		}
	}

	// 添加优惠券
	coupons := []service.CouponInput{
		{
			Code:                  "WELCOME10",
			Description:           "10% off the first order",
			DiscountType:          constants.CouponTypePercentage,
			DiscountValue:         models.MustMoney("10"),
			MinimumPurchaseAmount: models.MustMoney("30.00"),
			UsageLimitPerUser:     1,
		},
		{
			Code:          "FREESHIP",
			Description:   "Free shipping",
			DiscountType:  constants.CouponTypeFreeShipping,
			DiscountValue: models.MustMoney("0"),
		},
	}
	until := time.Now().AddDate(1, 0, 0)
	for _, input := range coupons {
		existing, err := container.CouponRepo.GetByCode(input.Code)
		if err != nil {
			stdLog.Printf("Failed to check coupon %s: %v", input.Code, err)
			continue
		}
		if existing != nil {
			stdLog.Printf("Coupon already exists: %s", input.Code)
			continue
		}
		input.ValidUntil = &until
		if _, err := container.CouponAdminService.Create(input); err != nil {
			stdLog.Printf("Failed to create coupon %s: %v", input.Code, err)
			continue
		}
		stdLog.Printf("Created coupon: %s", input.Code)
	}

	stdLog.Println("Seed completed")
}
