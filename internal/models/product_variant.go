package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品规格表
type ProductVariant struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // 主键
	ProductID       uint           `gorm:"index;not null" json:"product_id"`                              // 商品ID
	Name            string         `gorm:"type:varchar(120);not null" json:"name"`                        // 规格名称
	SKU             string         `gorm:"type:varchar(100);index" json:"sku"`                            // 规格编码
	PriceAdjustment Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_adjustment"` // 相对商品价格的调整额
	IsActive        bool           `gorm:"default:true;index" json:"is_active"`                           // 是否启用
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                    // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// UnitPrice 规格实际单价
func (v ProductVariant) UnitPrice(base Money) Money {
	return NewMoneyFromDecimal(base.Decimal.Add(v.PriceAdjustment.Decimal))
}
