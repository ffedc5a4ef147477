package repository

import (
	"time"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 支付数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByOrderID(orderID uint) (*models.Payment, error)
	LockByOrderID(orderID uint) (*models.Payment, error)
	GetByTransactionID(transactionID string) (*models.Payment, error)
	UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) PaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) PaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByOrderID 根据订单获取支付记录
func (r *GormPaymentRepository) GetByOrderID(orderID uint) (*models.Payment, error) {
	return firstOrNil[models.Payment](r.db.Where("order_id = ?", orderID))
}

// LockByOrderID 锁定订单支付记录
func (r *GormPaymentRepository) LockByOrderID(orderID uint) (*models.Payment, error) {
	return firstOrNil[models.Payment](forUpdate(r.db).Where("order_id = ?", orderID))
}

// GetByTransactionID 根据网关流水号获取支付记录
func (r *GormPaymentRepository) GetByTransactionID(transactionID string) (*models.Payment, error) {
	if transactionID == "" {
		return nil, nil
	}
	return firstOrNil[models.Payment](r.db.Where("transaction_id = ?", transactionID))
}

// UpdateStatus 按当前状态条件更新支付状态
func (r *GormPaymentRepository) UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	values := map[string]interface{}{}
	for key, value := range updates {
		values[key] = value
	}
	values["status"] = toStatus
	values["updated_at"] = time.Now()
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
