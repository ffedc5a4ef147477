package models

import (
	"time"
)

// Address 账单/收货地址快照
type Address struct {
	FullName   string `gorm:"type:varchar(120)" json:"full_name"`  // 姓名
	Email      string `gorm:"type:varchar(200)" json:"email"`      // 邮箱
	Phone      string `gorm:"type:varchar(40)" json:"phone"`       // 电话
	Line1      string `gorm:"type:varchar(255)" json:"line1"`      // 地址行1
	Line2      string `gorm:"type:varchar(255)" json:"line2"`      // 地址行2
	City       string `gorm:"type:varchar(100)" json:"city"`       // 城市
	State      string `gorm:"type:varchar(100)" json:"state"`      // 州/省
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"` // 邮编
	Country    string `gorm:"type:varchar(2)" json:"country"`      // 国家代码
}

// IsZero 是否未填写
func (a Address) IsZero() bool {
	return a == Address{}
}

// Order 订单表
type Order struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo         string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_no"`        // 订单编号
	UserID          uint       `gorm:"index;not null;default:0" json:"user_id,omitempty"`            // 用户ID（游客订单为 0）
	GuestSessionKey string     `gorm:"type:varchar(64);index" json:"-"`                              // 游客会话标识
	Status          string     `gorm:"type:varchar(20);index;not null" json:"status"`                // 订单状态
	StockState      string     `gorm:"type:varchar(20);not null;default:'reserved'" json:"-"`        // 库存状态（reserved/committed/released）
	Currency        string     `gorm:"type:varchar(3);not null" json:"currency"`                     // 币种
	Billing         Address    `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`              // 账单地址
	Shipping        Address    `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`            // 收货地址
	SubtotalAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"` // 商品小计
	TaxAmount       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`      // 税额
	ShippingAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"` // 运费
	DiscountAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TotalAmount     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 应付金额
	CouponID        *uint      `gorm:"index" json:"coupon_id,omitempty"`                             // 优惠券ID
	CouponCode      string     `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`                // 优惠码
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`                             // 买家备注
	ClientIP        string     `gorm:"type:varchar(64)" json:"-"`                                    // 下单客户端IP
	UserAgent       string     `gorm:"type:varchar(255)" json:"-"`                                   // 下单 UA
	IdempotencyKey  *string    `gorm:"type:varchar(160);uniqueIndex" json:"-"`                       // 幂等键
	TrackingNumber  string     `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`           // 物流单号
	CarrierName     string     `gorm:"type:varchar(100)" json:"carrier_name,omitempty"`              // 承运商
	ExpiresAt       *time.Time `gorm:"index" json:"expires_at"`                                      // 待支付过期时间
	PaidAt          *time.Time `gorm:"index" json:"paid_at"`                                         // 支付时间
	ConfirmedAt     *time.Time `json:"confirmed_at"`                                                 // 确认时间
	ShippedAt       *time.Time `json:"shipped_at"`                                                   // 发货时间
	DeliveredAt     *time.Time `json:"delivered_at"`                                                 // 签收时间
	CancelledAt     *time.Time `gorm:"index" json:"cancelled_at"`                                    // 取消时间
	RefundedAt      *time.Time `json:"refunded_at"`                                                  // 退款时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                                      // 更新时间

	// 关联
	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`    // 订单项
	Payment  *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"`  // 支付记录
	Delivery *Delivery   `gorm:"foreignKey:OrderID" json:"delivery,omitempty"` // 配送记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
