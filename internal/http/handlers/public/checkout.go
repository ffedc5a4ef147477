package public

import (
	"strings"

	"github.com/storefront-next/internal/constants"
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader 结算幂等键请求头
const IdempotencyKeyHeader = "Idempotency-Key"

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	Billing        service.AddressInput                `json:"billing"`
	Shipping       *service.AddressInput               `json:"shipping"`
	PaymentMethod  string                              `json:"payment_method"`
	Notes          string                              `json:"notes"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// Checkout 将购物车转为待支付订单
func (h *Handler) Checkout(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if owner.IsGuest() && h.CaptchaService != nil {
		if err := h.CaptchaService.Verify(constants.CaptchaSceneGuestCheckout, req.CaptchaPayload.ToServicePayload()); err != nil {
			respondCaptchaError(c, err)
			return
		}
	}

	result, err := h.CheckoutService.Checkout(c.Request.Context(), owner, service.CheckoutInput{
		Billing:        req.Billing,
		Shipping:       req.Shipping,
		PaymentMethod:  strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
		Notes:          req.Notes,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
		ClientIP:       c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, result)
}
