package models

import (
	"time"
)

// Cart 购物车（用户或游客会话二选一）
type Cart struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                         // 主键
	UserID         *uint      `gorm:"uniqueIndex" json:"user_id,omitempty"`                         // 用户ID
	SessionKey     *string    `gorm:"type:varchar(64);uniqueIndex" json:"session_key,omitempty"`    // 游客会话标识
	CouponCode     string     `gorm:"type:varchar(50);not null;default:''" json:"coupon_code"`      // 已应用的优惠码
	DiscountAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 展示用优惠金额
	Notes          string     `gorm:"type:text" json:"notes"`                                       // 备注
	ExpiresAt      *time.Time `gorm:"index" json:"expires_at"`                                      // 过期时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                                   // 更新时间

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"` // 购物车项
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// ItemsCount 商品总件数
func (c Cart) ItemsCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}
