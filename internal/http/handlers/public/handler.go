package public

import (
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 商城前台接口处理器，覆盖游客与登录用户
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// resolveCartOwner 登录用户优先，其次使用游客会话标识
func resolveCartOwner(c *gin.Context) (service.CartOwner, bool) {
	if handlershared.HasUser(c) {
		uid, ok := handlershared.CurrentUserID(c)
		if !ok {
			return service.CartOwner{}, false
		}
		return service.CartOwner{UserID: uid}, true
	}
	sessionKey := handlershared.SessionKey(c)
	if sessionKey == "" {
		respondError(c, response.CodeBadRequest, "error.session_required", nil)
		return service.CartOwner{}, false
	}
	return service.CartOwner{SessionKey: sessionKey}, true
}
