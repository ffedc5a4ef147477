package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"

	"gorm.io/gorm"
)

// StockLine 库存操作行
type StockLine struct {
	ProductID uint
	VariantID uint
	Quantity  int
}

// Owner 库存归属（规格优先）
func (l StockLine) Owner() models.StockOwner {
	return models.ResolveStockOwner(l.ProductID, l.VariantID)
}

// ReservationToken 预占凭证
type ReservationToken struct {
	Owner     models.StockOwner
	ProductID uint
	Quantity  int
}

// LockedStock 已加锁的商品与库存快照
type LockedStock struct {
	Products map[uint]models.Product
	Variants map[uint]models.ProductVariant
	Records  map[models.StockOwner]models.StockRecord
}

// Validate 在锁内逐行校验上架状态与可售数量，返回第一个违规
func (s *LockedStock) Validate(lines []StockLine) error {
	requested := make(map[models.StockOwner]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		product, ok := s.Products[line.ProductID]
		if !ok || !product.IsActive {
			return newProductUnavailableError(line.ProductID, line.VariantID)
		}
		if line.VariantID > 0 {
			variant, ok := s.Variants[line.VariantID]
			if !ok || !variant.IsActive || variant.ProductID != line.ProductID {
				return newProductUnavailableError(line.ProductID, line.VariantID)
			}
		}
		owner := line.Owner()
		requested[owner] += line.Quantity
		record, ok := s.Records[owner]
		if !ok {
			return newInsufficientStockError(line.ProductID, line.VariantID, 0, requested[owner])
		}
		if record.AvailableQuantity() < requested[owner] {
			return newInsufficientStockError(line.ProductID, line.VariantID, record.AvailableQuantity(), requested[owner])
		}
	}
	return nil
}

// StockLedger 库存台账：加锁、预占、释放、实扣、回补
type StockLedger struct {
	db          *gorm.DB
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	queueClient *queue.Client
	bound       bool
}

// NewStockLedger 创建库存台账
func NewStockLedger(db *gorm.DB, stockRepo repository.StockRepository, productRepo repository.ProductRepository, queueClient *queue.Client) *StockLedger {
	return &StockLedger{
		db:          db,
		stockRepo:   stockRepo,
		productRepo: productRepo,
		queueClient: queueClient,
	}
}

// WithTx 绑定调用方事务
func (l *StockLedger) WithTx(tx *gorm.DB) *StockLedger {
	if tx == nil {
		return l
	}
	return &StockLedger{
		db:          tx,
		stockRepo:   l.stockRepo.WithTx(tx),
		productRepo: l.productRepo.WithTx(tx),
		queueClient: l.queueClient,
		bound:       true,
	}
}

func (l *StockLedger) run(ctx context.Context, fn func(ledger *StockLedger) error) error {
	if l.bound {
		return fn(l)
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(l.WithTx(tx))
	})
}

// Lock 先按商品 ID 升序锁商品行，再按同一顺序锁库存行
func (l *StockLedger) Lock(ctx context.Context, lines []StockLine) (*LockedStock, error) {
	locked := &LockedStock{
		Products: map[uint]models.Product{},
		Variants: map[uint]models.ProductVariant{},
		Records:  map[models.StockOwner]models.StockRecord{},
	}
	err := l.run(ctx, func(ledger *StockLedger) error {
		productIDs, variantIDs, owners := collectStockKeys(lines)
		products, err := ledger.productRepo.LockByIDs(productIDs)
		if err != nil {
			return err
		}
		for _, product := range products {
			locked.Products[product.ID] = product
		}
		variants, err := ledger.productRepo.ListVariantsByIDs(variantIDs)
		if err != nil {
			return err
		}
		for _, variant := range variants {
			locked.Variants[variant.ID] = variant
		}
		records, err := ledger.stockRepo.LockByOwners(owners)
		if err != nil {
			return err
		}
		for _, record := range records {
			locked.Records[record.Owner()] = record
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locked, nil
}

func collectStockKeys(lines []StockLine) ([]uint, []uint, []models.StockOwner) {
	productSet := map[uint]struct{}{}
	variantSet := map[uint]struct{}{}
	ownerSet := map[models.StockOwner]struct{}{}
	for _, line := range lines {
		productSet[line.ProductID] = struct{}{}
		if line.VariantID > 0 {
			variantSet[line.VariantID] = struct{}{}
		}
		ownerSet[line.Owner()] = struct{}{}
	}
	productIDs := make([]uint, 0, len(productSet))
	for id := range productSet {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })
	variantIDs := make([]uint, 0, len(variantSet))
	for id := range variantSet {
		variantIDs = append(variantIDs, id)
	}
	sort.Slice(variantIDs, func(i, j int) bool { return variantIDs[i] < variantIDs[j] })
	owners := make([]models.StockOwner, 0, len(ownerSet))
	for owner := range ownerSet {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool {
		if owners[i].Kind != owners[j].Kind {
			return owners[i].Kind < owners[j].Kind
		}
		return owners[i].ID < owners[j].ID
	})
	return productIDs, variantIDs, owners
}

// CheckAndReserve 加锁校验后预占库存
func (l *StockLedger) CheckAndReserve(ctx context.Context, line StockLine) (*ReservationToken, error) {
	var token *ReservationToken
	err := l.run(ctx, func(ledger *StockLedger) error {
		locked, err := ledger.Lock(ctx, []StockLine{line})
		if err != nil {
			return err
		}
		if err := locked.Validate([]StockLine{line}); err != nil {
			return err
		}
		token, err = ledger.reserveLocked(line)
		return err
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// ReserveLocked 在已加锁且已校验的前提下预占库存
func (l *StockLedger) ReserveLocked(ctx context.Context, lines []StockLine) ([]ReservationToken, error) {
	tokens := make([]ReservationToken, 0, len(lines))
	err := l.run(ctx, func(ledger *StockLedger) error {
		for _, line := range lines {
			token, err := ledger.reserveLocked(line)
			if err != nil {
				return err
			}
			tokens = append(tokens, *token)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (l *StockLedger) reserveLocked(line StockLine) (*ReservationToken, error) {
	owner := line.Owner()
	affected, err := l.stockRepo.Reserve(owner, line.Quantity)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		available := 0
		if record, err := l.stockRepo.GetByOwner(owner); err == nil && record != nil {
			available = record.AvailableQuantity()
		}
		return nil, newInsufficientStockError(line.ProductID, line.VariantID, available, line.Quantity)
	}
	return &ReservationToken{Owner: owner, ProductID: line.ProductID, Quantity: line.Quantity}, nil
}

type stockMutation func(repo repository.StockRepository, owner models.StockOwner, quantity int) (int64, error)

// Release 释放预占
func (l *StockLedger) Release(ctx context.Context, owner models.StockOwner, quantity int) error {
	return l.apply(ctx, "release", owner, quantity, repository.StockRepository.Release)
}

// Commit 预占转实扣
func (l *StockLedger) Commit(ctx context.Context, owner models.StockOwner, quantity int) error {
	return l.apply(ctx, "commit", owner, quantity, repository.StockRepository.Commit)
}

// Restock 已实扣库存回补
func (l *StockLedger) Restock(ctx context.Context, owner models.StockOwner, quantity int) error {
	return l.apply(ctx, "restock", owner, quantity, repository.StockRepository.Restock)
}

func (l *StockLedger) apply(ctx context.Context, operation string, owner models.StockOwner, quantity int, mutate stockMutation) error {
	if !owner.Valid() || quantity <= 0 {
		return ErrStockInvalid
	}
	return l.run(ctx, func(ledger *StockLedger) error {
		affected, err := mutate(ledger.stockRepo, owner, quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s %s x%d", ErrStockLedgerConflict, operation, owner, quantity)
		}
		return nil
	})
}

// Get 读取库存记录（不加锁）
func (l *StockLedger) Get(owner models.StockOwner) (*models.StockRecord, error) {
	if !owner.Valid() {
		return nil, ErrStockInvalid
	}
	record, err := l.stockRepo.GetByOwner(owner)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrStockNotFound
	}
	return record, nil
}

// Available 查询可售数量（不加锁，仅用于展示与购物车预检）
func (l *StockLedger) Available(owner models.StockOwner) (int, error) {
	record, err := l.stockRepo.GetByOwner(owner)
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, nil
	}
	return record.AvailableQuantity(), nil
}

// AdjustInput 库存调整输入
type AdjustInput struct {
	Owner     models.StockOwner
	Quantity  int
	Threshold *int
}

// Adjust 设置在库数量与阈值，记录不存在时创建
func (l *StockLedger) Adjust(ctx context.Context, input AdjustInput) (*models.StockRecord, error) {
	if !input.Owner.Valid() || input.Quantity < 0 || (input.Threshold != nil && *input.Threshold < 0) {
		return nil, ErrStockInvalid
	}
	var result *models.StockRecord
	err := l.run(ctx, func(ledger *StockLedger) error {
		records, err := ledger.stockRepo.LockByOwners([]models.StockOwner{input.Owner})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			productID, err := ledger.resolveOwnerProduct(input.Owner)
			if err != nil {
				return err
			}
			record := &models.StockRecord{
				OwnerType:         input.Owner.Kind,
				OwnerID:           input.Owner.ID,
				ProductID:         productID,
				Quantity:          input.Quantity,
				LowStockThreshold: 10,
			}
			if input.Threshold != nil {
				record.LowStockThreshold = *input.Threshold
			}
			if err := ledger.stockRepo.Create(record); err != nil {
				return err
			}
			result = record
			return nil
		}
		current := records[0]
		if input.Quantity < current.ReservedQuantity {
			return &StockError{
				Kind:      ErrStockInvalid,
				ProductID: current.ProductID,
				Available: current.AvailableQuantity(),
				Requested: current.ReservedQuantity,
			}
		}
		if _, err := ledger.stockRepo.SetQuantity(input.Owner, input.Quantity); err != nil {
			return err
		}
		if input.Threshold != nil {
			if err := ledger.stockRepo.UpdateThreshold(input.Owner, *input.Threshold); err != nil {
				return err
			}
		}
		updated, err := ledger.stockRepo.GetByOwner(input.Owner)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result != nil && result.IsLowStock() {
		l.AlertLowStock([]models.StockOwner{result.Owner()})
	}
	return result, nil
}

func (l *StockLedger) resolveOwnerProduct(owner models.StockOwner) (uint, error) {
	if !owner.IsVariant() {
		product, err := l.productRepo.GetByID(owner.ID)
		if err != nil {
			return 0, err
		}
		if product == nil {
			return 0, ErrProductNotFound
		}
		return product.ID, nil
	}
	variant, err := l.productRepo.GetVariant(owner.ID)
	if err != nil {
		return 0, err
	}
	if variant == nil {
		return 0, ErrVariantNotFound
	}
	return variant.ProductID, nil
}

// ListLowStock 低库存列表
func (l *StockLedger) ListLowStock(page, pageSize int) ([]models.StockRecord, int64, error) {
	return l.stockRepo.List(repository.StockListFilter{Page: page, PageSize: pageSize, LowOnly: true})
}

// AlertLowStock 对低于阈值的库存推送告警任务，失败只记录日志
func (l *StockLedger) AlertLowStock(owners []models.StockOwner) {
	if l.queueClient == nil || !l.queueClient.Enabled() || len(owners) == 0 {
		return
	}
	records, err := l.stockRepo.ListByOwners(owners)
	if err != nil {
		logger.Warnw("stock_low_alert_query_failed", "error", err)
		return
	}
	for _, record := range records {
		if !record.IsLowStock() {
			continue
		}
		payload := queue.StockLowAlertPayload{
			OwnerType: record.OwnerType,
			OwnerID:   record.OwnerID,
			ProductID: record.ProductID,
			Available: record.AvailableQuantity(),
			Threshold: record.LowStockThreshold,
		}
		if err := l.queueClient.EnqueueStockLowAlert(payload); err != nil {
			logger.Warnw("stock_low_alert_enqueue_failed",
				"owner", record.Owner().String(),
				"error", err,
			)
		}
	}
}
