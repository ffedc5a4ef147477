package service

import (
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	repo repository.CouponRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository) *CouponAdminService {
	return &CouponAdminService{repo: repo}
}

// CouponInput 创建/更新优惠券输入
type CouponInput struct {
	Code                  string
	Description           string
	DiscountType          string
	DiscountValue         models.Money
	MinimumPurchaseAmount models.Money
	MaximumDiscountAmount models.Money
	UsageLimit            int
	UsageLimitPerUser     int
	ValidFrom             *time.Time
	ValidUntil            *time.Time
	IsActive              *bool
}

func (input CouponInput) validate() (string, string, error) {
	code := repository.NormalizeCouponCode(input.Code)
	if code == "" {
		return "", "", ErrCouponInvalid
	}
	discountType := strings.ToLower(strings.TrimSpace(input.DiscountType))
	switch discountType {
	case constants.CouponTypeFixed:
		if !input.DiscountValue.IsPositive() {
			return "", "", ErrCouponInvalid
		}
	case constants.CouponTypePercentage:
		if !input.DiscountValue.IsPositive() || input.DiscountValue.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return "", "", ErrCouponInvalid
		}
	case constants.CouponTypeFreeShipping:
	default:
		return "", "", ErrCouponInvalid
	}
	if input.MinimumPurchaseAmount.IsNegative() || input.MaximumDiscountAmount.IsNegative() {
		return "", "", ErrCouponInvalid
	}
	if input.UsageLimit < 0 || input.UsageLimitPerUser < 0 {
		return "", "", ErrCouponInvalid
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
		return "", "", ErrCouponInvalid
	}
	return code, discountType, nil
}

func (input CouponInput) apply(coupon *models.Coupon, code, discountType string) {
	coupon.Code = code
	coupon.Description = strings.TrimSpace(input.Description)
	coupon.DiscountType = discountType
	coupon.DiscountValue = input.DiscountValue
	coupon.MinimumPurchaseAmount = input.MinimumPurchaseAmount
	coupon.MaximumDiscountAmount = input.MaximumDiscountAmount
	coupon.UsageLimit = input.UsageLimit
	coupon.UsageLimitPerUser = input.UsageLimitPerUser
	coupon.ValidFrom = input.ValidFrom
	coupon.ValidUntil = input.ValidUntil
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
}

// Create 创建优惠券
func (s *CouponAdminService) Create(input CouponInput) (*models.Coupon, error) {
	code, discountType, err := input.validate()
	if err != nil {
		return nil, err
	}
	exist, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists
	}
	coupon := &models.Coupon{IsActive: true}
	input.apply(coupon, code, discountType)
	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update 更新优惠券（已使用次数保持不变）
func (s *CouponAdminService) Update(id uint, input CouponInput) (*models.Coupon, error) {
	code, discountType, err := input.validate()
	if err != nil {
		return nil, err
	}
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if code != coupon.Code {
		exist, err := s.repo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		if exist != nil {
			return nil, ErrCouponCodeExists
		}
	}
	input.apply(coupon, code, discountType)
	if err := s.repo.Update(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// List 优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.repo.List(filter)
}

// Delete 删除优惠券
func (s *CouponAdminService) Delete(id uint) error {
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	return s.repo.Delete(id)
}
