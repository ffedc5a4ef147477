package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem 订单项表（下单时快照，不随商品变更）
type OrderItem struct {
	ID            uint            `gorm:"primarykey" json:"id"`                                       // 主键
	OrderID       uint            `gorm:"index;not null" json:"order_id"`                             // 订单ID
	ProductID     uint            `gorm:"index;not null" json:"product_id"`                           // 商品ID
	VariantID     uint            `gorm:"not null;default:0" json:"variant_id"`                       // 规格ID（0 表示无规格）
	ProductName   string          `gorm:"type:varchar(200);not null" json:"product_name"`             // 商品名称快照
	SKU           string          `gorm:"type:varchar(100)" json:"sku"`                               // 编码快照
	VariantName   string          `gorm:"type:varchar(120)" json:"variant_name,omitempty"`            // 规格名称快照
	UnitPrice     Money           `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`    // 单价
	Quantity      int             `gorm:"not null" json:"quantity"`                                   // 数量
	TaxRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`       // 税率快照（百分比）
	LineSubtotal  Money           `gorm:"type:decimal(20,2);not null;default:0" json:"line_subtotal"` // 行小计
	TaxAmount     Money           `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`    // 行税额
	TotalPrice    Money           `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`   // 行合计（含税）
	Customization string          `gorm:"type:text" json:"customization,omitempty"`                   // 定制说明
	GiftMessage   string          `gorm:"type:text" json:"gift_message,omitempty"`                    // 礼品留言
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`                                    // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// StockOwner 库存归属
func (i OrderItem) StockOwner() StockOwner {
	return ResolveStockOwner(i.ProductID, i.VariantID)
}
