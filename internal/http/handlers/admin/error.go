package admin

import (
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

var validationErrorRules = []handlershared.ErrorRule{
	{Target: service.ErrValidation, Code: response.CodeUnprocessable, Key: "error.validation_failed"},
}

var orderErrorRules = []handlershared.ErrorRule{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrInvalidStateTransition, Code: response.CodeConflict, Key: "error.order_status_invalid"},
	{Target: service.ErrPaymentNotFound, Code: response.CodeNotFound, Key: "error.payment_not_found"},
	{Target: service.ErrRefundNotAllowed, Code: response.CodeConflict, Key: "error.refund_not_allowed"},
	{Target: service.ErrDeliveryNotFound, Code: response.CodeNotFound, Key: "error.delivery_not_found"},
	{Target: service.ErrInsufficientStock, Code: response.CodeConflict, Key: "error.insufficient_stock"},
}

var productErrorRules = []handlershared.ErrorRule{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrVariantNotFound, Code: response.CodeNotFound, Key: "error.variant_not_found"},
	{Target: service.ErrProductSlugExists, Code: response.CodeConflict, Key: "error.product_slug_exists"},
	{Target: service.ErrStockInvalid, Code: response.CodeBadRequest, Key: "error.stock_invalid"},
	{Target: service.ErrStockNotFound, Code: response.CodeNotFound, Key: "error.stock_not_found"},
}

var couponErrorRules = []handlershared.ErrorRule{
	{Target: service.ErrCouponNotFound, Code: response.CodeNotFound, Key: "error.coupon_not_found"},
	{Target: service.ErrCouponCodeExists, Code: response.CodeConflict, Key: "error.coupon_exists"},
	{Target: service.ErrCouponInvalid, Code: response.CodeBadRequest, Key: "error.coupon_invalid"},
}

func respondOrderError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.ConcatErrorRules(orderErrorRules, validationErrorRules), response.CodeInternal, "error.save_failed")
}

func respondProductError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.ConcatErrorRules(productErrorRules, validationErrorRules), response.CodeInternal, "error.save_failed")
}

func respondCouponError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, couponErrorRules, response.CodeInternal, "error.save_failed")
}
