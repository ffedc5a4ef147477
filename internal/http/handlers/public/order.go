package public

import (
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := handlershared.CurrentUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePage(c)

	orders, total, err := h.OrderService.ListForUser(c.Request.Context(), repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, page, pageSize, total)
}

// GetOrder 订单详情，已过期的待支付订单在读取时取消
func (h *Handler) GetOrder(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetForOwner(c.Request.Context(), owner, c.Param("order_no"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 买家取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	order, err := h.LifecycleService.CancelByCustomer(c.Request.Context(), owner, c.Param("order_no"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}
