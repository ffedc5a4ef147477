package repository

import (
	"errors"
	"sort"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// StockRepository 库存数据访问接口
type StockRepository interface {
	GetByOwner(owner models.StockOwner) (*models.StockRecord, error)
	LockByOwners(owners []models.StockOwner) ([]models.StockRecord, error)
	ListByOwners(owners []models.StockOwner) ([]models.StockRecord, error)
	Create(record *models.StockRecord) error
	Reserve(owner models.StockOwner, quantity int) (int64, error)
	Release(owner models.StockOwner, quantity int) (int64, error)
	Commit(owner models.StockOwner, quantity int) (int64, error)
	Restock(owner models.StockOwner, quantity int) (int64, error)
	SetQuantity(owner models.StockOwner, quantity int) (int64, error)
	UpdateThreshold(owner models.StockOwner, threshold int) error
	List(filter StockListFilter) ([]models.StockRecord, int64, error)
	WithTx(tx *gorm.DB) StockRepository
}

// GormStockRepository GORM 实现
type GormStockRepository struct {
	db *gorm.DB
}

// NewStockRepository 创建库存仓库
func NewStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStockRepository) WithTx(tx *gorm.DB) StockRepository {
	if tx == nil {
		return r
	}
	return &GormStockRepository{db: tx}
}

func ownerScope(owner models.StockOwner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_type = ? AND owner_id = ?", owner.Kind, owner.ID)
	}
}

// ownersCondition 构建多归属查询条件
func ownersCondition(db *gorm.DB, owners []models.StockOwner) *gorm.DB {
	var productIDs, variantIDs []uint
	for _, owner := range owners {
		if owner.IsVariant() {
			variantIDs = append(variantIDs, owner.ID)
		} else {
			productIDs = append(productIDs, owner.ID)
		}
	}
	cond := db.Session(&gorm.Session{NewDB: true})
	switch {
	case len(productIDs) > 0 && len(variantIDs) > 0:
		return cond.Where("owner_type = ? AND owner_id IN ?", constants.StockOwnerProduct, productIDs).
			Or("owner_type = ? AND owner_id IN ?", constants.StockOwnerVariant, variantIDs)
	case len(variantIDs) > 0:
		return cond.Where("owner_type = ? AND owner_id IN ?", constants.StockOwnerVariant, variantIDs)
	default:
		return cond.Where("owner_type = ? AND owner_id IN ?", constants.StockOwnerProduct, productIDs)
	}
}

// GetByOwner 获取库存记录（不加锁）
func (r *GormStockRepository) GetByOwner(owner models.StockOwner) (*models.StockRecord, error) {
	return firstOrNil[models.StockRecord](r.db.Scopes(ownerScope(owner)))
}

// LockByOwners 按 (product_id, owner_type, owner_id) 升序锁定库存行
func (r *GormStockRepository) LockByOwners(owners []models.StockOwner) ([]models.StockRecord, error) {
	if len(owners) == 0 {
		return nil, nil
	}
	var records []models.StockRecord
	err := forUpdate(r.db).
		Where(ownersCondition(r.db, owners)).
		Order("product_id asc").Order("owner_type asc").Order("owner_id asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListByOwners 批量读取库存记录（不加锁）
func (r *GormStockRepository) ListByOwners(owners []models.StockOwner) ([]models.StockRecord, error) {
	if len(owners) == 0 {
		return nil, nil
	}
	var records []models.StockRecord
	if err := r.db.Where(ownersCondition(r.db, owners)).Find(&records).Error; err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Create 创建库存记录
func (r *GormStockRepository) Create(record *models.StockRecord) error {
	return r.db.Create(record).Error
}

// Reserve 预占库存（可售数量不足时不更新）
func (r *GormStockRepository) Reserve(owner models.StockOwner, quantity int) (int64, error) {
	if !owner.Valid() || quantity <= 0 {
		return 0, errors.New("invalid stock reserve params")
	}
	result := r.db.Model(&models.StockRecord{}).
		Scopes(ownerScope(owner)).
		Where("quantity - reserved_quantity >= ?", quantity).
		Updates(map[string]interface{}{
			"reserved_quantity": gorm.Expr("reserved_quantity + ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Release 释放预占
func (r *GormStockRepository) Release(owner models.StockOwner, quantity int) (int64, error) {
	if !owner.Valid() || quantity <= 0 {
		return 0, errors.New("invalid stock release params")
	}
	result := r.db.Model(&models.StockRecord{}).
		Scopes(ownerScope(owner)).
		Where("reserved_quantity >= ?", quantity).
		Updates(map[string]interface{}{
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Commit 预占转实扣（在库与预占同时扣减）
func (r *GormStockRepository) Commit(owner models.StockOwner, quantity int) (int64, error) {
	if !owner.Valid() || quantity <= 0 {
		return 0, errors.New("invalid stock commit params")
	}
	result := r.db.Model(&models.StockRecord{}).
		Scopes(ownerScope(owner)).
		Where("reserved_quantity >= ? AND quantity >= ?", quantity, quantity).
		Updates(map[string]interface{}{
			"quantity":          gorm.Expr("quantity - ?", quantity),
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Restock 已实扣库存回补
func (r *GormStockRepository) Restock(owner models.StockOwner, quantity int) (int64, error) {
	if !owner.Valid() || quantity <= 0 {
		return 0, errors.New("invalid stock restock params")
	}
	result := r.db.Model(&models.StockRecord{}).
		Scopes(ownerScope(owner)).
		Updates(map[string]interface{}{
			"quantity": gorm.Expr("quantity + ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SetQuantity 设置在库数量（不得低于已预占数量）
func (r *GormStockRepository) SetQuantity(owner models.StockOwner, quantity int) (int64, error) {
	if !owner.Valid() || quantity < 0 {
		return 0, errors.New("invalid stock quantity params")
	}
	result := r.db.Model(&models.StockRecord{}).
		Scopes(ownerScope(owner)).
		Where("reserved_quantity <= ?", quantity).
		Update("quantity", quantity)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateThreshold 更新低库存阈值
func (r *GormStockRepository) UpdateThreshold(owner models.StockOwner, threshold int) error {
	if threshold < 0 {
		return errors.New("invalid stock threshold")
	}
	return r.db.Model(&models.StockRecord{}).
		Scopes(ownerScope(owner)).
		Update("low_stock_threshold", threshold).Error
}

// List 库存列表
func (r *GormStockRepository) List(filter StockListFilter) ([]models.StockRecord, int64, error) {
	query := r.db.Model(&models.StockRecord{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.LowOnly {
		query = query.Where("quantity - reserved_quantity <= low_stock_threshold")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.StockRecord
	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	if err := query.Order("product_id asc").Order("id asc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
