package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CouponRequest 创建/更新优惠券请求
type CouponRequest struct {
	Code                  string          `json:"code" binding:"required"`
	Description           string          `json:"description"`
	DiscountType          string          `json:"discount_type" binding:"required"`
	DiscountValue         decimal.Decimal `json:"discount_value"`
	MinimumPurchaseAmount decimal.Decimal `json:"minimum_purchase_amount"`
	MaximumDiscountAmount decimal.Decimal `json:"maximum_discount_amount"`
	UsageLimit            int             `json:"usage_limit"`
	UsageLimitPerUser     int             `json:"usage_limit_per_user"`
	ValidFrom             string          `json:"valid_from"`
	ValidUntil            string          `json:"valid_until"`
	IsActive              *bool           `json:"is_active"`
}

func (r CouponRequest) toInput() (service.CouponInput, error) {
	validFrom, err := parseTimeNullable(strings.TrimSpace(r.ValidFrom))
	if err != nil {
		return service.CouponInput{}, err
	}
	validUntil, err := parseTimeNullable(strings.TrimSpace(r.ValidUntil))
	if err != nil {
		return service.CouponInput{}, err
	}
	return service.CouponInput{
		Code:                  r.Code,
		Description:           r.Description,
		DiscountType:          r.DiscountType,
		DiscountValue:         models.NewMoneyFromDecimal(r.DiscountValue),
		MinimumPurchaseAmount: models.NewMoneyFromDecimal(r.MinimumPurchaseAmount),
		MaximumDiscountAmount: models.NewMoneyFromDecimal(r.MaximumDiscountAmount),
		UsageLimit:            r.UsageLimit,
		UsageLimitPerUser:     r.UsageLimitPerUser,
		ValidFrom:             validFrom,
		ValidUntil:            validUntil,
		IsActive:              r.IsActive,
	}, nil
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	coupon, err := h.CouponAdminService.Create(input)
	if err != nil {
		respondCouponError(c, err)
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	couponID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	coupon, err := h.CouponAdminService.Update(couponID, input)
	if err != nil {
		respondCouponError(c, err)
		return
	}
	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	couponID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CouponAdminService.Delete(couponID); err != nil {
		respondCouponError(c, err)
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetAdminCoupons 获取优惠券列表
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, pageSize := handlershared.ParsePage(c)
	activeOnly := false
	if raw := strings.TrimSpace(c.Query("active_only")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		activeOnly = parsed
	}

	coupons, total, err := h.CouponAdminService.List(repository.CouponListFilter{
		Page:       page,
		PageSize:   pageSize,
		Code:       c.Query("code"),
		ActiveOnly: activeOnly,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, coupons, page, pageSize, total)
}
