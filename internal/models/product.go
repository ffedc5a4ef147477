package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID          uint            `gorm:"primarykey" json:"id"`                                      // 主键
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`                    // 商品名称
	Slug        string          `gorm:"uniqueIndex;not null" json:"slug"`                          // 唯一标识
	SKU         string          `gorm:"type:varchar(100);index" json:"sku"`                        // 库存编码
	PriceAmount Money           `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 价格金额
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`      // 税率（百分比）
	IsActive    bool            `gorm:"default:true;index" json:"is_active"`                       // 是否上架
	SalesCount  int             `gorm:"not null;default:0" json:"sales_count"`                     // 累计销量
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`                                            // 软删除时间

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // 规格列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
