package shared

import (
	"github.com/storefront-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 中间件写入的上下文键
const (
	ContextRequestID  = "request_id"
	ContextUserID     = "user_id"
	ContextUserEmail  = "user_email"
	ContextUserRole   = "user_role"
	ContextSessionKey = "session_key"
)

// HasUser 当前请求是否已识别登录用户
func HasUser(c *gin.Context) bool {
	_, exists := c.Get(ContextUserID)
	return exists
}

// CurrentUserID 读取中间件写入的用户 ID，失败时已写出响应。
func CurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	id, ok := value.(uint)
	if !ok {
		RespondError(c, response.CodeInternal, "error.user_id_type_invalid", nil)
		return 0, false
	}
	if id == 0 {
		RespondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return 0, false
	}
	return id, true
}

// SessionKey 读取游客会话标识
func SessionKey(c *gin.Context) string {
	return c.GetString(ContextSessionKey)
}
