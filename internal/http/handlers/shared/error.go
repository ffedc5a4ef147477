package shared

import (
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString(ContextRequestID); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，err 非空时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	respond(c, code, i18n.T(i18n.ResolveLocale(c), key), nil, err)
}

// RespondErrorf 返回带格式化参数的国际化错误响应。
func RespondErrorf(c *gin.Context, code int, key string, args ...interface{}) {
	respond(c, code, i18n.Sprintf(i18n.ResolveLocale(c), key, args...), nil, nil)
}

// RespondErrorWithData 返回带结构化上下文的国际化错误响应。
func RespondErrorWithData(c *gin.Context, code int, key string, data gin.H, err error) {
	respond(c, code, i18n.T(i18n.ResolveLocale(c), key), data, err)
}

func respond(c *gin.Context, code int, msg string, data gin.H, err error) {
	if err != nil {
		// 5xx 为内部故障，其余为可预期的业务拒绝
		log := RequestLog(c).With("code", code, "message", msg, "error", err)
		if code >= response.CodeInternal {
			log.Errorw("handler_error")
		} else {
			log.Warnw("handler_rejected")
		}
	}
	response.ErrorWithData(c, code, msg, data)
}
