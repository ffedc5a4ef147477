package models

import (
	"time"
)

// Payment 支付记录（与订单一对一）
type Payment struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                         // 主键
	OrderID        uint       `gorm:"uniqueIndex;not null" json:"order_id"`                         // 订单ID
	Method         string     `gorm:"type:varchar(30);not null" json:"method"`                      // 支付方式
	Status         string     `gorm:"type:varchar(20);index;not null" json:"status"`                // 支付状态
	Amount         Money      `gorm:"type:decimal(20,2);not null" json:"amount"`                    // 支付金额
	RefundedAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"refunded_amount"` // 已退款金额
	Currency       string     `gorm:"type:varchar(3);not null" json:"currency"`                     // 币种
	TransactionID  string     `gorm:"type:varchar(100);index" json:"transaction_id"`                // 网关流水号
	FailureReason  string     `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`            // 失败原因
	PaidAt         *time.Time `gorm:"index" json:"paid_at"`                                         // 支付时间
	RefundedAt     *time.Time `json:"refunded_at"`                                                  // 退款时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
