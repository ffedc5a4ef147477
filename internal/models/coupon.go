package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                                 // 主键
	Code                  string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`                    // 优惠码
	Description           string         `gorm:"type:text" json:"description"`                                         // 描述
	DiscountType          string         `gorm:"type:varchar(20);not null" json:"discount_type"`                       // 类型（percentage/fixed/free_shipping）
	DiscountValue         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_value"`          // 数值（百分比或固定金额）
	MinimumPurchaseAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"minimum_purchase_amount"` // 使用门槛
	MaximumDiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"maximum_discount_amount"` // 最大优惠金额（0 表示不限制）
	UsageLimit            int            `gorm:"not null;default:0" json:"usage_limit"`                                // 总使用上限（0 表示不限制）
	UsageCount            int            `gorm:"not null;default:0" json:"usage_count"`                                // 已使用次数（只增不减）
	UsageLimitPerUser     int            `gorm:"not null;default:1" json:"usage_limit_per_user"`                       // 每人使用上限（0 表示不限制）
	IsActive              bool           `gorm:"not null;default:true" json:"is_active"`                               // 是否启用
	ValidFrom             *time.Time     `gorm:"index" json:"valid_from"`                                              // 生效时间
	ValidUntil            *time.Time     `gorm:"index" json:"valid_until"`                                             // 失效时间
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                                              // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                                       // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
