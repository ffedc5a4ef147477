package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// DeliveryEvent 配送轨迹事件
type DeliveryEvent struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	At        time.Time `json:"at"`
}

// DeliveryEvents 配送轨迹（JSON 存储）
type DeliveryEvents []DeliveryEvent

// Value 用于数据库写入
func (e DeliveryEvents) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 用于数据库读取
func (e *DeliveryEvents) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*e = DeliveryEvents{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported delivery events value")
	}
	if len(raw) == 0 {
		*e = DeliveryEvents{}
		return nil
	}
	return json.Unmarshal(raw, e)
}

// Delivery 配送记录（与订单一对一）
type Delivery struct {
	ID              uint           `gorm:"primarykey" json:"id"`                           // 主键
	OrderID         uint           `gorm:"uniqueIndex;not null" json:"order_id"`           // 订单ID
	Status          string         `gorm:"type:varchar(20);index;not null" json:"status"`  // 配送状态
	TrackingNumber  string         `gorm:"type:varchar(100);index" json:"tracking_number"` // 物流单号
	Carrier         string         `gorm:"type:varchar(100)" json:"carrier"`               // 承运商
	Latitude        *float64       `json:"latitude,omitempty"`                             // 当前纬度
	Longitude       *float64       `json:"longitude,omitempty"`                            // 当前经度
	TrackingHistory DeliveryEvents `gorm:"type:text" json:"tracking_history"`              // 轨迹历史
	EstimatedAt     *time.Time     `json:"estimated_at"`                                   // 预计送达时间
	DeliveredAt     *time.Time     `json:"delivered_at"`                                   // 签收时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                     // 更新时间
}

// TableName 指定表名
func (Delivery) TableName() string {
	return "deliveries"
}
