package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem 购物车项
type CartItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                           // 主键
	CartID        uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"cart_id"`              // 购物车ID
	ProductID     uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"product_id"`           // 商品ID
	VariantID     uint      `gorm:"not null;default:0;uniqueIndex:idx_cart_line" json:"variant_id"` // 规格ID（0 表示无规格）
	Quantity      int       `gorm:"not null" json:"quantity"`                                       // 数量
	UnitPrice     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`        // 加购时单价快照
	Customization string    `gorm:"type:text" json:"customization"`                                 // 定制说明
	GiftMessage   string    `gorm:"type:text" json:"gift_message"`                                  // 礼品留言
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                                     // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// StockOwner 库存归属
func (i CartItem) StockOwner() StockOwner {
	return ResolveStockOwner(i.ProductID, i.VariantID)
}

// LineTotal 行小计（按快照单价）
func (i CartItem) LineTotal() Money {
	return NewMoneyFromDecimal(i.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity))))
}
