package repository

import (
	"strings"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	LockByCode(code string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	Delete(id uint) error
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	IncrementUsageCount(id uint) (int64, error)
	DecrementUsageCount(id uint) error
	WithTx(tx *gorm.DB) CouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) CouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// NormalizeCouponCode 统一优惠码格式
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetByID 根据ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	return firstOrNil[models.Coupon](r.db, id)
}

// GetByCode 优惠码不区分大小写
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	return r.byCode(r.db, code)
}

// LockByCode 核销前锁定优惠券行
func (r *GormCouponRepository) LockByCode(code string) (*models.Coupon, error) {
	return r.byCode(forUpdate(r.db), code)
}

func (r *GormCouponRepository) byCode(query *gorm.DB, code string) (*models.Coupon, error) {
	if code = NormalizeCouponCode(code); code == "" {
		return nil, nil
	}
	return firstOrNil[models.Coupon](query.Where("code = ?", code))
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	coupon.Code = NormalizeCouponCode(coupon.Code)
	return r.db.Create(coupon).Error
}

// Update 更新优惠券
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	coupon.Code = NormalizeCouponCode(coupon.Code)
	return r.db.Save(coupon).Error
}

// Delete 删除优惠券
func (r *GormCouponRepository) Delete(id uint) error {
	return r.db.Delete(&models.Coupon{}, id).Error
}

// List 优惠券列表
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	query := r.db.Model(&models.Coupon{})
	if code := NormalizeCouponCode(filter.Code); code != "" {
		query = query.Where("code = ?", code)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var coupons []models.Coupon
	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	if err := query.Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// IncrementUsageCount 核销计数（超出总上限时不更新）
func (r *GormCouponRepository) IncrementUsageCount(id uint) (int64, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit = 0 OR usage_count < usage_limit)", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DecrementUsageCount 撤销一次核销计数，不低于 0
func (r *GormCouponRepository) DecrementUsageCount(id uint) error {
	return r.db.Model(&models.Coupon{}).
		Where("id = ? AND usage_count > 0", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count - ?", 1)).Error
}
