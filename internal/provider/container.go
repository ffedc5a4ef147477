package provider

import (
	"errors"

	"github.com/storefront-next/internal/authz"
	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/payment"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Registry    *prometheus.Registry
	Gateway     payment.Gateway

	// Repositories
	UserRepo        repository.UserRepository
	ProductRepo     repository.ProductRepository
	StockRepo       repository.StockRepository
	CartRepo        repository.CartRepository
	CouponRepo      repository.CouponRepository
	CouponUsageRepo repository.CouponUsageRepository
	OrderRepo       repository.OrderRepository
	PaymentRepo     repository.PaymentRepository
	DeliveryRepo    repository.DeliveryRepository

	// Services
	AuthzService       *authz.Service
	UserAuthService    *service.UserAuthService
	CaptchaService     *service.CaptchaService
	StockLedger        *service.StockLedger
	ProductService     *service.ProductService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	CartService        *service.CartService
	CheckoutService    *service.CheckoutService
	LifecycleService   *service.OrderLifecycleService
	OrderService       *service.OrderService
	PaymentService     *service.PaymentService
	DeliveryService    *service.DeliveryService
	Notifier           *service.NotificationService
	CheckoutMetrics    *metrics.CheckoutMetrics
}

// Options 容器可替换的外部协作者
type Options struct {
	Gateway  payment.Gateway
	Registry *prometheus.Registry
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, db *gorm.DB, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("db is nil")
	}

	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient = nil
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	gateway := opts.Gateway
	if gateway == nil {
		gateway = payment.NewManualGateway()
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
		Registry:    registry,
		Gateway:     gateway,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.StockRepo = repository.NewStockRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsageRepo = repository.NewCouponUsageRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.DeliveryRepo = repository.NewDeliveryRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}

	options := service.NewOrderOptions(c.Config.Order)
	c.CheckoutMetrics = metrics.NewCheckoutMetrics(c.Registry)
	c.Notifier = service.NewNotificationService(c.QueueClient)

	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.StockLedger = service.NewStockLedger(c.DB, c.StockRepo, c.ProductRepo, c.QueueClient)
	c.ProductService = service.NewProductService(c.DB, c.ProductRepo, c.StockLedger)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponUsageRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.StockLedger, c.CouponService, options)
	c.LifecycleService = service.NewOrderLifecycleService(
		c.DB,
		c.OrderRepo,
		c.PaymentRepo,
		c.DeliveryRepo,
		c.StockLedger,
		c.CouponService,
		c.Notifier,
		c.CheckoutMetrics,
	)
	c.CheckoutService = service.NewCheckoutService(service.CheckoutDeps{
		DB:            c.DB,
		CartRepo:      c.CartRepo,
		OrderRepo:     c.OrderRepo,
		ProductRepo:   c.ProductRepo,
		PaymentRepo:   c.PaymentRepo,
		DeliveryRepo:  c.DeliveryRepo,
		Ledger:        c.StockLedger,
		CouponService: c.CouponService,
		Notifier:      c.Notifier,
		QueueClient:   c.QueueClient,
		Metrics:       c.CheckoutMetrics,
		Options:       options,
	})
	c.OrderService = service.NewOrderService(c.OrderRepo, c.LifecycleService)
	c.PaymentService = service.NewPaymentService(c.OrderRepo, c.LifecycleService, c.Gateway)
	c.DeliveryService = service.NewDeliveryService(c.DeliveryRepo, c.LifecycleService)
	return nil
}

// Close 释放外部连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	return multierr.Combine(c.QueueClient.Close(), cache.Close())
}
