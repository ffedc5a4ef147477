package repository

import (
	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// CouponUsageRepository 优惠券核销记录
type CouponUsageRepository interface {
	Create(usage *models.CouponUsage) error
	CountByUser(couponID, userID uint) (int64, error)
	ListByOrderID(orderID uint) ([]models.CouponUsage, error)
	DeleteByOrderID(orderID uint) (int64, error)
	WithTx(tx *gorm.DB) CouponUsageRepository
}

// GormCouponUsageRepository GORM 实现
type GormCouponUsageRepository struct {
	db *gorm.DB
}

// NewCouponUsageRepository 创建核销记录仓库
func NewCouponUsageRepository(db *gorm.DB) *GormCouponUsageRepository {
	return &GormCouponUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponUsageRepository) WithTx(tx *gorm.DB) CouponUsageRepository {
	if tx == nil {
		return r
	}
	return &GormCouponUsageRepository{db: tx}
}

func (r *GormCouponUsageRepository) Create(usage *models.CouponUsage) error {
	return r.db.Create(usage).Error
}

// CountByUser 登录用户对某券的核销次数，游客不计
func (r *GormCouponUsageRepository) CountByUser(couponID, userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	return count, err
}

func (r *GormCouponUsageRepository) ListByOrderID(orderID uint) ([]models.CouponUsage, error) {
	var usages []models.CouponUsage
	err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&usages).Error
	return usages, err
}

// DeleteByOrderID 撤销订单的核销记录，返回删除条数
func (r *GormCouponUsageRepository) DeleteByOrderID(orderID uint) (int64, error) {
	result := r.db.Where("order_id = ?", orderID).Delete(&models.CouponUsage{})
	return result.RowsAffected, result.Error
}
