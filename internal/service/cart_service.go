package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
)

const guestCartTTL = 7 * 24 * time.Hour

// CartOwner 购物车归属：登录用户或游客会话二选一
type CartOwner struct {
	UserID     uint
	SessionKey string
}

// Valid 是否恰好设置了一个归属
func (o CartOwner) Valid() bool {
	hasSession := strings.TrimSpace(o.SessionKey) != ""
	return (o.UserID != 0) != hasSession
}

// IsGuest 是否游客
func (o CartOwner) IsGuest() bool {
	return o.UserID == 0
}

// Scope 幂等键等场景使用的归属标识
func (o CartOwner) Scope() string {
	if o.UserID != 0 {
		return "user:" + strconv.FormatUint(uint64(o.UserID), 10)
	}
	return "guest:" + strings.TrimSpace(o.SessionKey)
}

// AddCartItemInput 加购输入
type AddCartItemInput struct {
	ProductID     uint
	VariantID     uint
	Quantity      int
	Customization string
	GiftMessage   string
}

// CartTotals 购物车金额汇总
type CartTotals struct {
	Subtotal      models.Money `json:"subtotal"`
	Tax           models.Money `json:"tax"`
	Shipping      models.Money `json:"shipping"`
	Discount      models.Money `json:"discount"`
	Total         models.Money `json:"total"`
	ItemsCount    int          `json:"items_count"`
	CouponCode    string       `json:"coupon_code,omitempty"`
	CouponApplied bool         `json:"coupon_applied"`
	Currency      string       `json:"currency"`
}

// CartView 购物车详情
type CartView struct {
	Cart   *models.Cart `json:"cart"`
	Totals CartTotals   `json:"totals"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo      repository.CartRepository
	productRepo   repository.ProductRepository
	ledger        *StockLedger
	couponService *CouponService
	options       OrderOptions
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, ledger *StockLedger, couponService *CouponService, options OrderOptions) *CartService {
	return &CartService{
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		ledger:        ledger,
		couponService: couponService,
		options:       options.normalized(),
	}
}

func (s *CartService) find(owner CartOwner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, ErrCartOwnerRequired
	}
	if owner.UserID != 0 {
		return s.cartRepo.GetByUser(owner.UserID)
	}
	return s.cartRepo.GetBySession(strings.TrimSpace(owner.SessionKey))
}

// Get 获取购物车，不存在时返回 ErrCartNotFound
func (s *CartService) Get(owner CartOwner) (*models.Cart, error) {
	cart, err := s.find(owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// GetOrCreate 获取或创建购物车
func (s *CartService) GetOrCreate(owner CartOwner) (*models.Cart, error) {
	cart, err := s.find(owner)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	cart = &models.Cart{}
	if owner.UserID != 0 {
		userID := owner.UserID
		cart.UserID = &userID
	} else {
		sessionKey := strings.TrimSpace(owner.SessionKey)
		expiresAt := time.Now().Add(guestCartTTL)
		cart.SessionKey = &sessionKey
		cart.ExpiresAt = &expiresAt
	}
	if err := s.cartRepo.Create(cart); err != nil {
		// 并发创建时唯一索引冲突，重新读取
		existing, findErr := s.find(owner)
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return cart, nil
}

// View 购物车详情与金额，购物车不存在时返回空视图
func (s *CartService) View(owner CartOwner) (*CartView, error) {
	cart, err := s.find(owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{}
	}
	totals, err := s.totalsFor(cart, owner.UserID)
	if err != nil {
		return nil, err
	}
	return &CartView{Cart: cart, Totals: *totals}, nil
}

// AddItem 加购，同一商品规格已存在时累加数量
func (s *CartService) AddItem(owner CartOwner, input AddCartItemInput) (*models.Cart, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, variant, err := s.loadSellable(input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}
	cart, err := s.GetOrCreate(owner)
	if err != nil {
		return nil, err
	}
	existing, err := s.cartRepo.FindItem(cart.ID, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}
	quantity := input.Quantity
	if existing != nil {
		quantity += existing.Quantity
	}
	if err := s.checkAvailable(input.ProductID, input.VariantID, quantity); err != nil {
		return nil, err
	}

	unitPrice := resolveUnitPrice(product, variant)
	if existing != nil {
		existing.Quantity = quantity
		existing.UnitPrice = unitPrice
		if strings.TrimSpace(input.Customization) != "" {
			existing.Customization = strings.TrimSpace(input.Customization)
		}
		if strings.TrimSpace(input.GiftMessage) != "" {
			existing.GiftMessage = strings.TrimSpace(input.GiftMessage)
		}
		if err := s.cartRepo.UpdateItem(existing); err != nil {
			return nil, err
		}
	} else {
		item := &models.CartItem{
			CartID:        cart.ID,
			ProductID:     input.ProductID,
			VariantID:     input.VariantID,
			Quantity:      quantity,
			UnitPrice:     unitPrice,
			Customization: strings.TrimSpace(input.Customization),
			GiftMessage:   strings.TrimSpace(input.GiftMessage),
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			return nil, err
		}
	}
	return s.touch(owner, cart)
}

// UpdateQuantity 修改购物车项数量
func (s *CartService) UpdateQuantity(owner CartOwner, itemID uint, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.Get(owner)
	if err != nil {
		return nil, err
	}
	item, err := s.cartRepo.GetItem(cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if _, _, err := s.loadSellable(item.ProductID, item.VariantID); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(item.ProductID, item.VariantID, quantity); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := s.cartRepo.UpdateItem(item); err != nil {
		return nil, err
	}
	return s.touch(owner, cart)
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(owner CartOwner, itemID uint) (*models.Cart, error) {
	cart, err := s.Get(owner)
	if err != nil {
		return nil, err
	}
	affected, err := s.cartRepo.DeleteItem(cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrCartItemNotFound
	}
	return s.touch(owner, cart)
}

// Clear 清空购物车与优惠码
func (s *CartService) Clear(owner CartOwner) error {
	cart, err := s.find(owner)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	if err := s.cartRepo.ClearItems(cart.ID); err != nil {
		return err
	}
	return s.cartRepo.UpdateCoupon(cart.ID, "", models.Money{})
}

// ApplyCoupon 应用优惠码（校验可用性与门槛）
func (s *CartService) ApplyCoupon(owner CartOwner, code string) (*CartView, error) {
	cart, err := s.Get(owner)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}
	coupon, err := s.couponService.Resolve(code, owner.UserID, time.Now())
	if err != nil {
		return nil, err
	}
	lines, err := s.pricingLines(cart)
	if err != nil {
		return nil, err
	}
	totals := Quote(lines, coupon, s.options.Pricing)
	if err := CheckMinimum(coupon, totals.Subtotal.Decimal); err != nil {
		return nil, err
	}
	if err := s.cartRepo.UpdateCoupon(cart.ID, coupon.Code, totals.Discount); err != nil {
		return nil, err
	}
	return s.View(owner)
}

// RemoveCoupon 移除优惠码
func (s *CartService) RemoveCoupon(owner CartOwner) (*CartView, error) {
	cart, err := s.Get(owner)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.UpdateCoupon(cart.ID, "", models.Money{}); err != nil {
		return nil, err
	}
	return s.View(owner)
}

// ComputeTotals 计算购物车金额（只读，无副作用）
func (s *CartService) ComputeTotals(owner CartOwner) (*CartTotals, error) {
	cart, err := s.Get(owner)
	if err != nil {
		return nil, err
	}
	return s.totalsFor(cart, owner.UserID)
}

func (s *CartService) totalsFor(cart *models.Cart, userID uint) (*CartTotals, error) {
	lines, err := s.pricingLines(cart)
	if err != nil {
		return nil, err
	}
	var coupon *models.Coupon
	if cart.CouponCode != "" {
		// 已失效的优惠码只是不参与计算
		resolved, err := s.couponService.Resolve(cart.CouponCode, userID, time.Now())
		if err == nil {
			coupon = resolved
		} else if !isCouponError(err) {
			return nil, err
		}
	}
	quote := Quote(lines, coupon, s.options.Pricing)
	totals := &CartTotals{
		Subtotal:      quote.Subtotal,
		Tax:           quote.Tax,
		Shipping:      quote.Shipping,
		Discount:      quote.Discount,
		Total:         quote.Total,
		ItemsCount:    cart.ItemsCount(),
		CouponCode:    cart.CouponCode,
		CouponApplied: quote.CouponApplied,
		Currency:      s.options.Currency,
	}
	return totals, nil
}

// pricingLines 按价格策略构建计价行，已下架商品按快照价展示
func (s *CartService) pricingLines(cart *models.Cart) ([]PricingLine, error) {
	variants, err := s.cartVariants(cart.Items)
	if err != nil {
		return nil, err
	}
	lines := make([]PricingLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		line := PricingLine{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
		if item.Product != nil {
			line.TaxRate = item.Product.TaxRate
			if s.options.PricePolicy == constants.PricePolicyLive {
				line.UnitPrice = resolveUnitPrice(item.Product, variants[item.VariantID])
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *CartService) cartVariants(items []models.CartItem) (map[uint]*models.ProductVariant, error) {
	ids := make([]uint, 0)
	for _, item := range items {
		if item.VariantID > 0 {
			ids = append(ids, item.VariantID)
		}
	}
	variants, err := s.productRepo.ListVariantsByIDs(ids)
	if err != nil {
		return nil, err
	}
	result := make(map[uint]*models.ProductVariant, len(variants))
	for i := range variants {
		result[variants[i].ID] = &variants[i]
	}
	return result, nil
}

func (s *CartService) loadSellable(productID, variantID uint) (*models.Product, *models.ProductVariant, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, nil, newProductUnavailableError(productID, variantID)
	}
	if variantID == 0 {
		return product, nil, nil
	}
	variant, err := s.productRepo.GetVariant(variantID)
	if err != nil {
		return nil, nil, err
	}
	if variant == nil || variant.ProductID != productID {
		return nil, nil, ErrVariantNotFound
	}
	if !variant.IsActive {
		return nil, nil, newProductUnavailableError(productID, variantID)
	}
	return product, variant, nil
}

func (s *CartService) checkAvailable(productID, variantID uint, quantity int) error {
	available, err := s.ledger.Available(models.ResolveStockOwner(productID, variantID))
	if err != nil {
		return err
	}
	if available < quantity {
		return newInsufficientStockError(productID, variantID, available, quantity)
	}
	return nil
}

func (s *CartService) touch(owner CartOwner, cart *models.Cart) (*models.Cart, error) {
	var expiresAt *time.Time
	if owner.IsGuest() {
		next := time.Now().Add(guestCartTTL)
		expiresAt = &next
	}
	if err := s.cartRepo.Touch(cart.ID, expiresAt); err != nil {
		return nil, err
	}
	return s.Get(owner)
}

// resolveUnitPrice 当前售价（规格价优先）
func resolveUnitPrice(product *models.Product, variant *models.ProductVariant) models.Money {
	if product == nil {
		return models.Money{}
	}
	if variant != nil {
		return variant.UnitPrice(product.PriceAmount)
	}
	return product.PriceAmount
}

func isCouponError(err error) bool {
	for _, target := range []error{ErrCouponNotFound, ErrCouponInactive, ErrCouponNotStarted, ErrCouponExpired, ErrCouponUsageLimit, ErrCouponMinAmount} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
