package service

import (
	"time"

	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponService 优惠券校验与核销
type CouponService struct {
	couponRepo repository.CouponRepository
	usageRepo  repository.CouponUsageRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, usageRepo repository.CouponUsageRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		usageRepo:  usageRepo,
	}
}

// WithTx 绑定事务
func (s *CouponService) WithTx(tx *gorm.DB) *CouponService {
	if s == nil || tx == nil {
		return s
	}
	return &CouponService{
		couponRepo: s.couponRepo.WithTx(tx),
		usageRepo:  s.usageRepo.WithTx(tx),
	}
}

// Resolve 按优惠码查找并校验可用性（不校验门槛）
func (s *CouponService) Resolve(code string, userID uint, now time.Time) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	return s.check(coupon, userID, now)
}

// ResolveLocked 锁定优惠券行后校验可用性，结算事务内使用
func (s *CouponService) ResolveLocked(code string, userID uint, now time.Time) (*models.Coupon, error) {
	coupon, err := s.couponRepo.LockByCode(code)
	if err != nil {
		return nil, err
	}
	return s.check(coupon, userID, now)
}

func (s *CouponService) check(coupon *models.Coupon, userID uint, now time.Time) (*models.Coupon, error) {
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if err := checkCouponWindow(coupon, now); err != nil {
		return coupon, err
	}
	if coupon.UsageLimitPerUser > 0 && userID != 0 {
		count, err := s.usageRepo.CountByUser(coupon.ID, userID)
		if err != nil {
			return coupon, err
		}
		if int(count) >= coupon.UsageLimitPerUser {
			return coupon, ErrCouponUsageLimit
		}
	}
	return coupon, nil
}

// checkCouponWindow 校验启用状态、有效期与总次数
func checkCouponWindow(coupon *models.Coupon, now time.Time) error {
	if !coupon.IsActive {
		return ErrCouponInactive
	}
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return ErrCouponNotStarted
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return ErrCouponExpired
	}
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return ErrCouponUsageLimit
	}
	return nil
}

// CheckMinimum 校验使用门槛
func CheckMinimum(coupon *models.Coupon, subtotal decimal.Decimal) error {
	if coupon == nil {
		return nil
	}
	if !couponMinimumMet(coupon, subtotal) {
		return ErrCouponMinAmount
	}
	return nil
}

// Redeem 核销优惠券：计数加一并写入使用记录，须在结算事务内调用
func (s *CouponService) Redeem(coupon *models.Coupon, userID, orderID uint, discount models.Money) error {
	if coupon == nil {
		return nil
	}
	affected, err := s.couponRepo.IncrementUsageCount(coupon.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCouponUsageLimit
	}
	return s.usageRepo.Create(&models.CouponUsage{
		CouponID:       coupon.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discount,
	})
}

// ReleaseForOrder 订单取消或失败时撤销核销，须在订单事务内调用
func (s *CouponService) ReleaseForOrder(orderID uint) (int, error) {
	usages, err := s.usageRepo.ListByOrderID(orderID)
	if err != nil || len(usages) == 0 {
		return 0, err
	}
	for _, usage := range usages {
		if err := s.couponRepo.DecrementUsageCount(usage.CouponID); err != nil {
			return 0, err
		}
	}
	if _, err := s.usageRepo.DeleteByOrderID(orderID); err != nil {
		return 0, err
	}
	return len(usages), nil
}
