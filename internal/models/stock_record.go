package models

import (
	"fmt"
	"time"

	"github.com/storefront-next/internal/constants"
)

// StockOwner 库存归属（商品或规格二选一）
type StockOwner struct {
	Kind string // product / variant
	ID   uint
}

// ProductStockOwner 商品维度库存
func ProductStockOwner(productID uint) StockOwner {
	return StockOwner{Kind: constants.StockOwnerProduct, ID: productID}
}

// VariantStockOwner 规格维度库存
func VariantStockOwner(variantID uint) StockOwner {
	return StockOwner{Kind: constants.StockOwnerVariant, ID: variantID}
}

// ResolveStockOwner 根据行项目解析库存归属，规格优先
func ResolveStockOwner(productID, variantID uint) StockOwner {
	if variantID > 0 {
		return VariantStockOwner(variantID)
	}
	return ProductStockOwner(productID)
}

// Valid 是否为合法归属
func (o StockOwner) Valid() bool {
	return o.ID > 0 && (o.Kind == constants.StockOwnerProduct || o.Kind == constants.StockOwnerVariant)
}

// IsVariant 是否规格库存
func (o StockOwner) IsVariant() bool {
	return o.Kind == constants.StockOwnerVariant
}

func (o StockOwner) String() string {
	return fmt.Sprintf("%s:%d", o.Kind, o.ID)
}

// StockRecord 库存记录表
type StockRecord struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                                    // 主键
	OwnerType         string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_stock_owner" json:"owner_type"` // 归属类型（product/variant）
	OwnerID           uint      `gorm:"not null;uniqueIndex:idx_stock_owner" json:"owner_id"`                    // 归属ID
	ProductID         uint      `gorm:"index;not null" json:"product_id"`                                        // 所属商品ID（加锁排序键）
	Quantity          int       `gorm:"not null;default:0" json:"quantity"`                                      // 在库数量
	ReservedQuantity  int       `gorm:"not null;default:0" json:"reserved_quantity"`                             // 已预占数量
	LowStockThreshold int       `gorm:"not null;default:10" json:"low_stock_threshold"`                          // 低库存阈值
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt         time.Time `json:"updated_at"`                                                              // 更新时间
}

// TableName 指定表名
func (StockRecord) TableName() string {
	return "stock_records"
}

// Owner 库存归属
func (s StockRecord) Owner() StockOwner {
	return StockOwner{Kind: s.OwnerType, ID: s.OwnerID}
}

// AvailableQuantity 可售数量（不落库）
func (s StockRecord) AvailableQuantity() int {
	available := s.Quantity - s.ReservedQuantity
	if available < 0 {
		return 0
	}
	return available
}

// IsLowStock 是否低于阈值
func (s StockRecord) IsLowStock() bool {
	return s.AvailableQuantity() <= s.LowStockThreshold
}
