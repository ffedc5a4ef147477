package public

import (
	"errors"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PayOrder 通过支付网关处理订单付款
func (h *Handler) PayOrder(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	order, err := h.PaymentService.Process(c.Request.Context(), owner, c.Param("order_no"))
	if err != nil {
		if errors.Is(err, service.ErrPaymentDeclined) && order != nil {
			handlershared.RespondErrorWithData(c, response.CodePaymentRequired, "error.payment_declined", gin.H{
				"kind":     service.ErrorKind(err),
				"order_no": order.OrderNo,
				"status":   order.Status,
			}, nil)
			return
		}
		respondPaymentError(c, err)
		return
	}
	response.Success(c, order)
}
