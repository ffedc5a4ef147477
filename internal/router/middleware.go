package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/storefront-next/internal/authz"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader  = "X-Request-ID"
	sessionKeyHeader = "X-Session-Key"

	requestIDKey      = handlershared.ContextRequestID
	contextUserID     = handlershared.ContextUserID
	contextUserEmail  = handlershared.ContextUserEmail
	contextUserRole   = handlershared.ContextUserRole
	contextSessionKey = handlershared.ContextSessionKey
)

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-Locale",
			sessionKeyHeader,
			idempotencyKeyHeader,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", requestIDHeader+", "+sessionKeyHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// SessionKeyMiddleware 读取游客会话标识（X-Session-Key）
func SessionKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionKey := strings.TrimSpace(c.GetHeader(sessionKeyHeader))
		if len(sessionKey) > 64 {
			sessionKey = ""
		}
		if sessionKey != "" {
			c.Set(contextSessionKey, sessionKey)
		}
		c.Next()
	}
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件（必须登录）
func UserJWTAuthMiddleware(authService *service.UserAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticateUser(c, authService) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalUserJWTMiddleware 携带有效 Token 时识别用户，否则按游客处理
func OptionalUserJWTMiddleware(authService *service.UserAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(c.GetHeader("Authorization")) == "" {
			c.Next()
			return
		}
		if !authenticateUser(c, authService) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// authenticateUser 校验 Bearer Token 并写入用户上下文，失败时已写出响应
func authenticateUser(c *gin.Context, authService *service.UserAuthService) bool {
	fail := func(key string) bool {
		response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), key))
		return false
	}
	if authService == nil {
		return fail("error.token_invalid")
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return fail("error.auth_header_missing")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return fail("error.auth_header_invalid")
	}

	claims, err := authService.ParseUserJWT(strings.TrimSpace(parts[1]))
	if err != nil || claims.UserID == 0 {
		return fail("error.token_invalid")
	}
	state, err := authService.ResolveAuthState(c.Request.Context(), claims.UserID)
	if err != nil || state == nil {
		return fail("error.token_invalid")
	}
	if !isActiveUserStatus(state.Status) {
		return fail("error.user_disabled")
	}
	if claims.TokenVersion != state.TokenVersion {
		return fail("error.token_revoked")
	}

	c.Set(contextUserID, claims.UserID)
	c.Set(contextUserEmail, claims.Email)
	c.Set(contextUserRole, state.Role)
	return true
}

// AdminRBACMiddleware 管理端 RBAC 鉴权中间件，依赖 UserJWTAuthMiddleware 写入的用户上下文
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), "error.unauthorized"))
			c.Abort()
			return
		}

		userID := c.GetUint(contextUserID)
		if userID == 0 {
			response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), "error.unauthorized"))
			c.Abort()
			return
		}
		role := c.GetString(contextUserRole)

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceUser(userID, role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"user_id", userID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), "error.unauthorized"))
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"user_id", userID,
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func isActiveUserStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.UserStatusActive
}
