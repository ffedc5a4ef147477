package public

import (
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError = handlershared.ErrorRule

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, fallbackCode, fallbackKey)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	return handlershared.ConcatErrorRules(groups...)
}

var cartOwnerErrorRules = []mappedHandlerError{
	{Target: service.ErrCartOwnerRequired, Code: response.CodeBadRequest, Key: "error.session_required"},
	{Target: service.ErrCartNotFound, Code: response.CodeNotFound, Key: "error.cart_not_found"},
	{Target: service.ErrCartEmpty, Code: response.CodeBadRequest, Key: "error.cart_empty"},
}

var cartItemErrorRules = []mappedHandlerError{
	{Target: service.ErrCartItemNotFound, Code: response.CodeNotFound, Key: "error.cart_item_not_found"},
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrVariantNotFound, Code: response.CodeNotFound, Key: "error.variant_not_found"},
	{Target: service.ErrProductUnavailable, Code: response.CodeBadRequest, Key: "error.product_unavailable"},
	{Target: service.ErrInsufficientStock, Code: response.CodeConflict, Key: "error.insufficient_stock"},
	{Target: service.ErrStockNotFound, Code: response.CodeConflict, Key: "error.insufficient_stock"},
}

var couponErrorRules = []mappedHandlerError{
	{Target: service.ErrCouponNotFound, Code: response.CodeBadRequest, Key: "error.coupon_not_found"},
	{Target: service.ErrCouponInactive, Code: response.CodeBadRequest, Key: "error.coupon_inactive"},
	{Target: service.ErrCouponNotStarted, Code: response.CodeBadRequest, Key: "error.coupon_not_started"},
	{Target: service.ErrCouponExpired, Code: response.CodeBadRequest, Key: "error.coupon_expired"},
	{Target: service.ErrCouponUsageLimit, Code: response.CodeBadRequest, Key: "error.coupon_usage_limit"},
	{Target: service.ErrCouponMinAmount, Code: response.CodeBadRequest, Key: "error.coupon_min_amount"},
	{Target: service.ErrCouponInvalid, Code: response.CodeBadRequest, Key: "error.coupon_invalid"},
}

var checkoutExtraErrorRules = []mappedHandlerError{
	{Target: service.ErrValidation, Code: response.CodeUnprocessable, Key: "error.validation_failed"},
	{Target: service.ErrIdempotencyKeyInvalid, Code: response.CodeBadRequest, Key: "error.idempotency_key_invalid"},
	{Target: service.ErrCheckoutInProgress, Code: response.CodeConflict, Key: "error.checkout_in_progress"},
}

var orderErrorRules = []mappedHandlerError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrInvalidStateTransition, Code: response.CodeConflict, Key: "error.order_status_invalid"},
}

var paymentErrorRules = []mappedHandlerError{
	{Target: service.ErrPaymentNotFound, Code: response.CodeNotFound, Key: "error.payment_not_found"},
	{Target: service.ErrPaymentDeclined, Code: response.CodePaymentRequired, Key: "error.payment_declined"},
	{Target: service.ErrPaymentGatewayUnavailable, Code: response.CodeUnavailable, Key: "error.payment_gateway_unavailable"},
}

var checkoutErrorRules = concatMappedHandlerErrors(cartOwnerErrorRules, cartItemErrorRules, couponErrorRules, checkoutExtraErrorRules)

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(cartOwnerErrorRules, cartItemErrorRules, couponErrorRules), response.CodeInternal, "error.internal")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.checkout_failed")
}

func respondOrderError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderErrorRules, cartOwnerErrorRules), response.CodeInternal, "error.fetch_failed")
}

func respondPaymentError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderErrorRules, paymentErrorRules, cartOwnerErrorRules), response.CodeInternal, "error.payment_failed")
}
