package service

import (
	"context"
	"strings"

	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductService 商品服务
type ProductService struct {
	db     *gorm.DB
	repo   repository.ProductRepository
	ledger *StockLedger
}

// NewProductService 创建商品服务
func NewProductService(db *gorm.DB, repo repository.ProductRepository, ledger *StockLedger) *ProductService {
	return &ProductService{db: db, repo: repo, ledger: ledger}
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	Name              string
	Slug              string
	SKU               string
	PriceAmount       models.Money
	TaxRate           decimal.Decimal
	IsActive          *bool
	InitialStock      *int
	LowStockThreshold *int
}

// VariantInput 创建规格输入
type VariantInput struct {
	Name              string
	SKU               string
	PriceAdjustment   models.Money
	IsActive          *bool
	InitialStock      *int
	LowStockThreshold *int
}

func (input ProductInput) normalize() (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	input.SKU = strings.TrimSpace(input.SKU)
	fields := map[string]string{}
	if input.Name == "" {
		fields["name"] = "required"
	}
	if input.Slug == "" {
		fields["slug"] = "required"
	}
	if !input.PriceAmount.IsPositive() {
		fields["price_amount"] = "gt=0"
	}
	if input.TaxRate.IsNegative() || input.TaxRate.GreaterThan(hundred) {
		fields["tax_rate"] = "range=0-100"
	}
	if input.InitialStock != nil && *input.InitialStock < 0 {
		fields["initial_stock"] = "gte=0"
	}
	if len(fields) > 0 {
		return input, &ValidationError{Fields: fields}
	}
	return input, nil
}

// ListPublic 获取上架商品列表
func (s *ProductService) ListPublic(search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		Search:       search,
		OnlyActive:   true,
		WithVariants: true,
	})
}

// GetPublicBySlug 获取上架商品详情
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		Search:       search,
		WithVariants: true,
	})
}

// GetAdminByID 获取后台商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品，可同时初始化商品维度库存
func (s *ProductService) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountBySlug(input.Slug, 0)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrProductSlugExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	product := &models.Product{
		Name:        input.Name,
		Slug:        input.Slug,
		SKU:         input.SKU,
		PriceAmount: input.PriceAmount,
		TaxRate:     input.TaxRate,
		IsActive:    isActive,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(product); err != nil {
			return err
		}
		if input.InitialStock == nil {
			return nil
		}
		_, err := s.ledger.WithTx(tx).Adjust(ctx, AdjustInput{
			Owner:     models.ProductStockOwner(product.ID),
			Quantity:  *input.InitialStock,
			Threshold: input.LowStockThreshold,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Update 更新商品基础信息
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	count, err := s.repo.CountBySlug(input.Slug, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrProductSlugExists
	}

	product.Name = input.Name
	product.Slug = input.Slug
	product.SKU = input.SKU
	product.PriceAmount = input.PriceAmount
	product.TaxRate = input.TaxRate
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品（软删除，已下单快照不受影响）
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.repo.Delete(id)
}

// AddVariant 新增规格，可同时初始化规格库存
func (s *ProductService) AddVariant(ctx context.Context, productID uint, input VariantInput) (*models.ProductVariant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "required"}}
	}
	if input.InitialStock != nil && *input.InitialStock < 0 {
		return nil, &ValidationError{Fields: map[string]string{"initial_stock": "gte=0"}}
	}
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.PriceAmount.Decimal.Add(input.PriceAdjustment.Decimal).IsNegative() {
		return nil, &ValidationError{Fields: map[string]string{"price_adjustment": "unit_price_negative"}}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	variant := &models.ProductVariant{
		ProductID:       productID,
		Name:            name,
		SKU:             strings.TrimSpace(input.SKU),
		PriceAdjustment: input.PriceAdjustment,
		IsActive:        isActive,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateVariant(variant); err != nil {
			return err
		}
		if input.InitialStock == nil {
			return nil
		}
		_, err := s.ledger.WithTx(tx).Adjust(ctx, AdjustInput{
			Owner:     models.VariantStockOwner(variant.ID),
			Quantity:  *input.InitialStock,
			Threshold: input.LowStockThreshold,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return variant, nil
}
