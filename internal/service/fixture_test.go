package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/payment"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db        *gorm.DB
	registry  *prometheus.Registry
	ledger    *StockLedger
	coupons   *CouponService
	carts     *CartService
	checkout  *CheckoutService
	lifecycle *OrderLifecycleService
	payments  *PaymentService
	delivery  *DeliveryService
	orders    *OrderService
	products  *ProductService
	orderRepo *repository.GormOrderRepository
}

func setupServiceFixture(t *testing.T, name string, gateway payment.Gateway) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 共享内存库只开一个连接，所有事务因此串行执行。
	// 基于该夹具的并发用例只能验证条件扣减的账目与不超卖，验证不到 FOR UPDATE 的加锁顺序（postgres 才会走到）。
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductVariant{},
		&models.StockRecord{},
		&models.Cart{},
		&models.CartItem{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Delivery{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	stockRepo := repository.NewStockRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	options := OrderOptions{
		Currency:      "USD",
		PaymentExpire: 30 * time.Minute,
	}.normalized()

	ledger := NewStockLedger(db, stockRepo, productRepo, nil)
	coupons := NewCouponService(repository.NewCouponRepository(db), repository.NewCouponUsageRepository(db))
	notifier := NewNotificationService(nil)
	lifecycle := NewOrderLifecycleService(db, orderRepo, paymentRepo, deliveryRepo, ledger, coupons, notifier, checkoutMetrics)

	return &serviceFixture{
		db:        db,
		registry:  registry,
		ledger:    ledger,
		coupons:   coupons,
		carts:     NewCartService(cartRepo, productRepo, ledger, coupons, options),
		lifecycle: lifecycle,
		checkout: NewCheckoutService(CheckoutDeps{
			DB:            db,
			CartRepo:      cartRepo,
			OrderRepo:     orderRepo,
			ProductRepo:   productRepo,
			PaymentRepo:   paymentRepo,
			DeliveryRepo:  deliveryRepo,
			Ledger:        ledger,
			CouponService: coupons,
			Notifier:      notifier,
			Metrics:       checkoutMetrics,
			Options:       options,
		}),
		payments:  NewPaymentService(orderRepo, lifecycle, gateway),
		delivery:  NewDeliveryService(deliveryRepo, lifecycle),
		orders:    NewOrderService(orderRepo, lifecycle),
		products:  NewProductService(db, productRepo, ledger),
		orderRepo: orderRepo,
	}
}

func (f *serviceFixture) seedProduct(t *testing.T, slug, price, taxRate string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:        "Product " + slug,
		Slug:        slug,
		SKU:         "SKU-" + slug,
		PriceAmount: models.MustMoney(price),
		TaxRate:     decimal.RequireFromString(taxRate),
		IsActive:    true,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	record := &models.StockRecord{
		OwnerType:         constants.StockOwnerProduct,
		OwnerID:           product.ID,
		ProductID:         product.ID,
		Quantity:          stock,
		LowStockThreshold: 1,
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("create stock failed: %v", err)
	}
	return product
}

func (f *serviceFixture) seedVariant(t *testing.T, product *models.Product, name, adjustment string, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:       product.ID,
		Name:            name,
		SKU:             product.SKU + "-" + name,
		PriceAdjustment: models.MustMoney(adjustment),
		IsActive:        true,
	}
	if err := f.db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	record := &models.StockRecord{
		OwnerType:         constants.StockOwnerVariant,
		OwnerID:           variant.ID,
		ProductID:         product.ID,
		Quantity:          stock,
		LowStockThreshold: 1,
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("create variant stock failed: %v", err)
	}
	return variant
}

func (f *serviceFixture) seedCoupon(t *testing.T, coupon models.Coupon) *models.Coupon {
	t.Helper()
	coupon.IsActive = true
	if err := f.db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return &coupon
}

func (f *serviceFixture) addToCart(t *testing.T, owner CartOwner, productID, variantID uint, quantity int) *models.Cart {
	t.Helper()
	cart, err := f.carts.AddItem(owner, AddCartItemInput{ProductID: productID, VariantID: variantID, Quantity: quantity})
	if err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	return cart
}

func (f *serviceFixture) stock(t *testing.T, owner models.StockOwner) models.StockRecord {
	t.Helper()
	var record models.StockRecord
	if err := f.db.Where("owner_type = ? AND owner_id = ?", owner.Kind, owner.ID).First(&record).Error; err != nil {
		t.Fatalf("load stock failed: %v", err)
	}
	return record
}

func (f *serviceFixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return count
}

func (f *serviceFixture) placeOrder(t *testing.T, owner CartOwner, productID uint, quantity int, method string) *models.Order {
	t.Helper()
	f.addToCart(t, owner, productID, 0, quantity)
	input := validCheckoutInput()
	input.PaymentMethod = method
	result, err := f.checkout.Checkout(context.Background(), owner, input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return result.Order
}

func validCheckoutInput() CheckoutInput {
	return CheckoutInput{
		Billing: AddressInput{
			FullName:   "Ada Lovelace",
			Email:      "Ada@Example.com",
			Phone:      "+44 20 7946 0000",
			Line1:      "12 Analytical Row",
			City:       "London",
			PostalCode: "N1 9GU",
			Country:    "gb",
		},
		PaymentMethod: constants.PaymentMethodCreditCard,
	}
}

type stubGateway struct {
	status string
	reason string
}

func (g stubGateway) Charge(ctx context.Context, input payment.ChargeInput) (*payment.ChargeResult, error) {
	return &payment.ChargeResult{Status: g.status, FailureReason: g.reason}, nil
}

func (g stubGateway) Refund(ctx context.Context, input payment.RefundInput) (*payment.RefundResult, error) {
	return &payment.RefundResult{RefundID: "RF-STUB"}, nil
}
