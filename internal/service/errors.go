package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUserNotFound              = errors.New("user not found")
	ErrUserDisabled              = errors.New("user disabled")
	ErrEmailExists               = errors.New("email already exists")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrPasswordTooShort          = errors.New("password too short")
	ErrInvalidToken              = errors.New("invalid token")
	ErrCaptchaRequired           = errors.New("captcha required")
	ErrCaptchaInvalid            = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid      = errors.New("captcha config invalid")
	ErrCartOwnerRequired         = errors.New("cart owner required")
	ErrCartNotFound              = errors.New("cart not found")
	ErrCartEmpty                 = errors.New("cart empty")
	ErrCartItemNotFound          = errors.New("cart item not found")
	ErrInvalidQuantity           = errors.New("invalid quantity")
	ErrProductNotFound           = errors.New("product not found")
	ErrProductUnavailable        = errors.New("product unavailable")
	ErrVariantNotFound           = errors.New("variant not found")
	ErrProductSlugExists         = errors.New("product slug exists")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrStockNotFound             = errors.New("stock record not found")
	ErrStockInvalid              = errors.New("invalid stock parameters")
	ErrStockLedgerConflict       = errors.New("stock ledger conflict")
	ErrCouponNotFound            = errors.New("coupon not found")
	ErrCouponInactive            = errors.New("coupon inactive")
	ErrCouponNotStarted          = errors.New("coupon not started")
	ErrCouponExpired             = errors.New("coupon expired")
	ErrCouponUsageLimit          = errors.New("coupon usage limit reached")
	ErrCouponMinAmount           = errors.New("coupon minimum purchase not met")
	ErrCouponCodeExists          = errors.New("coupon code exists")
	ErrCouponInvalid             = errors.New("coupon invalid")
	ErrOrderNotFound             = errors.New("order not found")
	ErrInvalidStateTransition    = errors.New("invalid state transition")
	ErrCheckoutInProgress        = errors.New("checkout in progress")
	ErrCheckoutInternal          = errors.New("checkout internal error")
	ErrValidation                = errors.New("validation failed")
	ErrPaymentNotFound           = errors.New("payment not found")
	ErrPaymentDeclined           = errors.New("payment declined")
	ErrRefundNotAllowed          = errors.New("refund not allowed")
	ErrDeliveryNotFound          = errors.New("delivery not found")
	ErrIdempotencyKeyInvalid     = errors.New("idempotency key invalid")
	ErrPaymentGatewayUnavailable = errors.New("payment gateway unavailable")
)

// StockError 库存相关错误上下文
type StockError struct {
	Kind      error
	ProductID uint
	VariantID uint
	Available int
	Requested int
}

func (e *StockError) Error() string {
	if e.VariantID > 0 {
		return fmt.Sprintf("%v: product=%d variant=%d available=%d requested=%d", e.Kind, e.ProductID, e.VariantID, e.Available, e.Requested)
	}
	return fmt.Sprintf("%v: product=%d available=%d requested=%d", e.Kind, e.ProductID, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error {
	return e.Kind
}

func newInsufficientStockError(productID, variantID uint, available, requested int) *StockError {
	if available < 0 {
		available = 0
	}
	return &StockError{
		Kind:      ErrInsufficientStock,
		ProductID: productID,
		VariantID: variantID,
		Available: available,
		Requested: requested,
	}
}

func newProductUnavailableError(productID, variantID uint) *StockError {
	return &StockError{
		Kind:      ErrProductUnavailable,
		ProductID: productID,
		VariantID: variantID,
	}
}

// TransitionError 状态流转错误
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s %s -> %s", ErrInvalidStateTransition, e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// ValidationError 输入校验错误，Fields 为字段到规则的映射
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+":"+e.Fields[key])
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, ","))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

var errorKinds = []struct {
	target error
	kind   string
}{
	{ErrCartOwnerRequired, "cart_owner_required"},
	{ErrCartNotFound, "cart_not_found"},
	{ErrCartEmpty, "cart_empty"},
	{ErrCartItemNotFound, "cart_item_not_found"},
	{ErrProductUnavailable, "product_unavailable"},
	{ErrProductNotFound, "product_not_found"},
	{ErrVariantNotFound, "variant_not_found"},
	{ErrProductSlugExists, "product_slug_exists"},
	{ErrInsufficientStock, "insufficient_stock"},
	{ErrStockNotFound, "stock_not_found"},
	{ErrStockInvalid, "stock_invalid"},
	{ErrStockLedgerConflict, "stock_ledger_conflict"},
	{ErrInvalidStateTransition, "invalid_state_transition"},
	{ErrCheckoutInProgress, "checkout_in_progress"},
	{ErrIdempotencyKeyInvalid, "idempotency_key_invalid"},
	{ErrValidation, "validation_failed"},
	{ErrInvalidQuantity, "invalid_quantity"},
	{ErrCouponNotFound, "coupon_not_found"},
	{ErrCouponInactive, "coupon_inactive"},
	{ErrCouponNotStarted, "coupon_not_started"},
	{ErrCouponExpired, "coupon_expired"},
	{ErrCouponUsageLimit, "coupon_usage_limit"},
	{ErrCouponMinAmount, "coupon_min_amount"},
	{ErrCouponCodeExists, "coupon_code_exists"},
	{ErrCouponInvalid, "coupon_invalid"},
	{ErrOrderNotFound, "order_not_found"},
	{ErrPaymentNotFound, "payment_not_found"},
	{ErrPaymentDeclined, "payment_declined"},
	{ErrPaymentGatewayUnavailable, "payment_gateway_unavailable"},
	{ErrRefundNotAllowed, "refund_not_allowed"},
	{ErrDeliveryNotFound, "delivery_not_found"},
	{ErrUserNotFound, "user_not_found"},
	{ErrUserDisabled, "user_disabled"},
	{ErrEmailExists, "email_exists"},
	{ErrInvalidEmail, "invalid_email"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrPasswordTooShort, "password_too_short"},
	{ErrInvalidToken, "invalid_token"},
	{ErrCaptchaRequired, "captcha_required"},
	{ErrCaptchaInvalid, "captcha_invalid"},
	{ErrCaptchaConfigInvalid, "captcha_config_invalid"},
	{ErrCheckoutInternal, "checkout_internal_error"},
}

// ErrorKind 返回错误的机器可读类型，未知错误返回 internal_error
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, item := range errorKinds {
		if errors.Is(err, item.target) {
			return item.kind
		}
	}
	return "internal_error"
}

// wrapCheckoutInternal 将非领域错误包装为结算内部错误
func wrapCheckoutInternal(err error) error {
	if err == nil {
		return nil
	}
	if ErrorKind(err) != "internal_error" {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCheckoutInternal, err)
}
