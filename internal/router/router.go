package router

import (
	"sort"
	"strings"

	"github.com/storefront-next/internal/authz"
	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	adminhandlers "github.com/storefront-next/internal/http/handlers/admin"
	publichandlers "github.com/storefront-next/internal/http/handlers/public"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const idempotencyKeyHeader = publichandlers.IdempotencyKeyHeader

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix, redisClient := cache.Prefix(), cache.Client()
	loginRule := NewRateLimitRule(redisPrefix, "login", cfg.Security.LoginRateLimit, "error.login_too_many")
	checkoutRule := NewRateLimitRule(redisPrefix, "checkout", cfg.Security.CheckoutRateLimit, "error.checkout_too_many")

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.GET("/products", publicHandler.GetProducts)
		apiV1.GET("/products/:slug", publicHandler.GetProductBySlug)
		apiV1.GET("/captcha", publicHandler.GetImageCaptcha)

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 购物车与结算（登录用户或游客会话）
		shopper := apiV1.Group("")
		shopper.Use(SessionKeyMiddleware(), OptionalUserJWTMiddleware(c.UserAuthService))
		{
			shopper.GET("/cart", publicHandler.GetCart)
			shopper.DELETE("/cart", publicHandler.ClearCart)
			shopper.POST("/cart/items", publicHandler.AddCartItem)
			shopper.PATCH("/cart/items/:id", publicHandler.UpdateCartItem)
			shopper.DELETE("/cart/items/:id", publicHandler.RemoveCartItem)
			shopper.POST("/cart/coupon", publicHandler.ApplyCartCoupon)
			shopper.DELETE("/cart/coupon", publicHandler.RemoveCartCoupon)
			shopper.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByCartOwner), publicHandler.Checkout)
			shopper.GET("/orders/:order_no", publicHandler.GetOrder)
			shopper.POST("/orders/:order_no/cancel", publicHandler.CancelOrder)
			shopper.POST("/orders/:order_no/pay", publicHandler.PayOrder)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.UserAuthService))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.GET("/orders", publicHandler.ListOrders)
		}

		// 管理接口（JWT + RBAC）
		admin := apiV1.Group("/admin")
		admin.Use(UserJWTAuthMiddleware(c.UserAuthService), AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.POST("/orders/:id/status", adminHandler.AdminUpdateOrderStatus)
			admin.POST("/orders/:id/capture", adminHandler.AdminCaptureOrder)
			admin.POST("/orders/:id/refund", adminHandler.AdminRefundOrder)
			admin.GET("/orders/:id/delivery", adminHandler.AdminGetDelivery)
			admin.POST("/orders/:id/delivery", adminHandler.AdminUpdateDelivery)

			admin.GET("/products", adminHandler.AdminListProducts)
			admin.POST("/products", adminHandler.AdminCreateProduct)
			admin.GET("/products/:id", adminHandler.AdminGetProduct)
			admin.PUT("/products/:id", adminHandler.AdminUpdateProduct)
			admin.DELETE("/products/:id", adminHandler.AdminDeleteProduct)
			admin.POST("/products/:id/variants", adminHandler.AdminCreateVariant)

			admin.GET("/stock/low", adminHandler.AdminListLowStock)
			admin.GET("/stock/:owner_type/:owner_id", adminHandler.AdminGetStock)
			admin.PUT("/stock/:owner_type/:owner_id", adminHandler.AdminAdjustStock)

			admin.GET("/coupons", adminHandler.GetAdminCoupons)
			admin.POST("/coupons", adminHandler.CreateCoupon)
			admin.PUT("/coupons/:id", adminHandler.UpdateCoupon)
			admin.DELETE("/coupons/:id", adminHandler.DeleteCoupon)

			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.POST("/authz/roles", adminHandler.CreateAuthzRole)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/users/:id/roles", adminHandler.GetAuthzUserRoles)
			admin.PUT("/authz/users/:id/roles", adminHandler.SetAuthzUserRoles)
			admin.GET("/authz/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 指标
	if cfg.Metrics.Enabled && c.Registry != nil {
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{Registry: c.Registry})))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/authz/me" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
