package repository

import (
	"time"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByUser(userID uint) (*models.Cart, error)
	GetBySession(sessionKey string) (*models.Cart, error)
	LockByID(id uint) (*models.Cart, error)
	Create(cart *models.Cart) error
	UpdateCoupon(cartID uint, code string, discount models.Money) error
	Touch(cartID uint, expiresAt *time.Time) error
	GetItem(cartID, itemID uint) (*models.CartItem, error)
	FindItem(cartID, productID, variantID uint) (*models.CartItem, error)
	CreateItem(item *models.CartItem) error
	UpdateItem(item *models.CartItem) error
	DeleteItem(cartID, itemID uint) (int64, error)
	ClearItems(cartID uint) error
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

func (r *GormCartRepository) withItems(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).Preload("Items.Product")
}

func (r *GormCartRepository) first(query *gorm.DB) (*models.Cart, error) {
	return firstOrNil[models.Cart](r.withItems(query))
}

// GetByUser 获取用户购物车
func (r *GormCartRepository) GetByUser(userID uint) (*models.Cart, error) {
	if userID == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("user_id = ?", userID))
}

// GetBySession 获取游客购物车
func (r *GormCartRepository) GetBySession(sessionKey string) (*models.Cart, error) {
	if sessionKey == "" {
		return nil, nil
	}
	return r.first(r.db.Where("session_key = ?", sessionKey))
}

// LockByID 锁定购物车行并加载购物车项
func (r *GormCartRepository) LockByID(id uint) (*models.Cart, error) {
	return r.first(forUpdate(r.db).Where("id = ?", id))
}

// Create 创建购物车
func (r *GormCartRepository) Create(cart *models.Cart) error {
	return r.db.Create(cart).Error
}

// UpdateCoupon 更新购物车优惠码
func (r *GormCartRepository) UpdateCoupon(cartID uint, code string, discount models.Money) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"coupon_code":     code,
		"discount_amount": discount,
	}).Error
}

// Touch 刷新购物车更新时间与过期时间
func (r *GormCartRepository) Touch(cartID uint, expiresAt *time.Time) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"expires_at": expiresAt,
		"updated_at": time.Now(),
	}).Error
}

// GetItem 获取购物车项
func (r *GormCartRepository) GetItem(cartID, itemID uint) (*models.CartItem, error) {
	return firstOrNil[models.CartItem](r.db.Where("id = ? AND cart_id = ?", itemID, cartID))
}

// FindItem 按商品与规格查找购物车项
func (r *GormCartRepository) FindItem(cartID, productID, variantID uint) (*models.CartItem, error) {
	return firstOrNil[models.CartItem](r.db.Where("cart_id = ? AND product_id = ? AND variant_id = ?", cartID, productID, variantID))
}

// CreateItem 新增购物车项
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	return r.db.Create(item).Error
}

// UpdateItem 更新购物车项数量与附加信息
func (r *GormCartRepository) UpdateItem(item *models.CartItem) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"quantity":      item.Quantity,
		"unit_price":    item.UnitPrice,
		"customization": item.Customization,
		"gift_message":  item.GiftMessage,
		"updated_at":    time.Now(),
	}).Error
}

// DeleteItem 删除购物车项
func (r *GormCartRepository) DeleteItem(cartID, itemID uint) (int64, error) {
	result := r.db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// ClearItems 清空购物车项
func (r *GormCartRepository) ClearItems(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
