package repository

import (

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// DeliveryRepository 配送数据访问接口
type DeliveryRepository interface {
	Create(delivery *models.Delivery) error
	GetByOrderID(orderID uint) (*models.Delivery, error)
	LockByOrderID(orderID uint) (*models.Delivery, error)
	Save(delivery *models.Delivery) error
	WithTx(tx *gorm.DB) DeliveryRepository
}

// GormDeliveryRepository GORM 实现
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository 创建配送仓库
func NewDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryRepository) WithTx(tx *gorm.DB) DeliveryRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryRepository{db: tx}
}

// Create 创建配送记录
func (r *GormDeliveryRepository) Create(delivery *models.Delivery) error {
	return r.db.Create(delivery).Error
}

// GetByOrderID 根据订单获取配送记录
func (r *GormDeliveryRepository) GetByOrderID(orderID uint) (*models.Delivery, error) {
	return firstOrNil[models.Delivery](r.db.Where("order_id = ?", orderID))
}

// LockByOrderID 锁定订单配送记录
func (r *GormDeliveryRepository) LockByOrderID(orderID uint) (*models.Delivery, error) {
	return firstOrNil[models.Delivery](forUpdate(r.db).Where("order_id = ?", orderID))
}

// Save 保存配送记录
func (r *GormDeliveryRepository) Save(delivery *models.Delivery) error {
	return r.db.Save(delivery).Error
}
