package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"

	"gorm.io/gorm"
)

// AddressInput 地址输入
type AddressInput struct {
	FullName   string `json:"full_name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email,max=200"`
	Phone      string `json:"phone" validate:"omitempty,max=40"`
	Line1      string `json:"line1" validate:"required,max=255"`
	Line2      string `json:"line2" validate:"omitempty,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"omitempty,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2,alpha"`
}

func (a AddressInput) toModel() models.Address {
	return models.Address{
		FullName:   strings.TrimSpace(a.FullName),
		Email:      strings.ToLower(strings.TrimSpace(a.Email)),
		Phone:      strings.TrimSpace(a.Phone),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
	}
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	Billing        AddressInput  `json:"billing"`
	Shipping       *AddressInput `json:"shipping" validate:"omitempty"`
	PaymentMethod  string        `json:"payment_method" validate:"required,oneof=credit_card debit_card paypal stripe bank_transfer cash_on_delivery cryptocurrency"`
	Notes          string        `json:"notes" validate:"max=2000"`
	IdempotencyKey string        `json:"idempotency_key"`
	ClientIP       string        `json:"-"`
	UserAgent      string        `json:"-"`
}

// CheckoutResult 结算结果
type CheckoutResult struct {
	Order    *models.Order `json:"order"`
	Replayed bool          `json:"replayed"`
}

// CheckoutService 结算编排：锁库存、计价、建单、预占、清空购物车，在同一事务内完成
type CheckoutService struct {
	db            *gorm.DB
	cartRepo      repository.CartRepository
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	paymentRepo   repository.PaymentRepository
	deliveryRepo  repository.DeliveryRepository
	ledger        *StockLedger
	couponService *CouponService
	notifier      *NotificationService
	queueClient   *queue.Client
	metrics       *metrics.CheckoutMetrics
	options       OrderOptions
	orderNo       func(time.Time) string
}

// CheckoutDeps 结算服务依赖
type CheckoutDeps struct {
	DB            *gorm.DB
	CartRepo      repository.CartRepository
	OrderRepo     repository.OrderRepository
	ProductRepo   repository.ProductRepository
	PaymentRepo   repository.PaymentRepository
	DeliveryRepo  repository.DeliveryRepository
	Ledger        *StockLedger
	CouponService *CouponService
	Notifier      *NotificationService
	QueueClient   *queue.Client
	Metrics       *metrics.CheckoutMetrics
	Options       OrderOptions
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(deps CheckoutDeps) *CheckoutService {
	return &CheckoutService{
		db:            deps.DB,
		cartRepo:      deps.CartRepo,
		orderRepo:     deps.OrderRepo,
		productRepo:   deps.ProductRepo,
		paymentRepo:   deps.PaymentRepo,
		deliveryRepo:  deps.DeliveryRepo,
		ledger:        deps.Ledger,
		couponService: deps.CouponService,
		notifier:      deps.Notifier,
		queueClient:   deps.QueueClient,
		metrics:       deps.Metrics,
		options:       deps.Options.normalized(),
		orderNo:       generateOrderNo,
	}
}

// Checkout 将购物车转为待支付订单
func (s *CheckoutService) Checkout(ctx context.Context, owner CartOwner, input CheckoutInput) (result *CheckoutResult, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveCheckout(checkoutResultLabel(result, err), time.Since(started))
	}()

	if !owner.Valid() {
		return nil, ErrCartOwnerRequired
	}
	if input.Shipping != nil && input.Shipping.toModel().IsZero() {
		input.Shipping = nil
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	key, err := normalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	scope := owner.Scope()
	storeKey := ""
	if key != "" {
		storeKey = scope + ":" + key
		replay, err := s.findReplay(ctx, owner, scope, key, storeKey)
		if err != nil || replay != nil {
			return replay, err
		}
		acquired, err := cache.AcquireCheckoutInFlight(ctx, scope, key)
		if err != nil {
			logger.Warnw("checkout_inflight_acquire_failed", "scope", scope, "error", err)
		} else if !acquired {
			return nil, ErrCheckoutInProgress
		}
		defer func() {
			if releaseErr := cache.ReleaseCheckoutInFlight(context.Background(), scope, key); releaseErr != nil {
				logger.Warnw("checkout_inflight_release_failed", "scope", scope, "error", releaseErr)
			}
		}()
	}

	order, reserved, err := s.commit(ctx, owner, input, storeKey)
	if err != nil {
		if storeKey != "" {
			// 并发的同键请求已先提交
			if existing, findErr := s.orderRepo.GetByIdempotencyKey(storeKey); findErr == nil && existing != nil {
				return &CheckoutResult{Order: existing, Replayed: true}, nil
			}
		}
		if ErrorKind(err) == "internal_error" {
			logger.Errorw("checkout_failed",
				"owner", scope,
				"error", err,
			)
		}
		return nil, wrapCheckoutInternal(err)
	}

	s.afterCommit(ctx, scope, key, order, reserved)

	full, err := s.orderRepo.GetByID(order.ID)
	if err == nil && full != nil {
		order = full
	}
	return &CheckoutResult{Order: order}, nil
}

func (s *CheckoutService) findReplay(ctx context.Context, owner CartOwner, scope, key, storeKey string) (*CheckoutResult, error) {
	replay, hit, err := cache.GetCheckoutReplay(ctx, scope, key)
	if err != nil {
		logger.Warnw("checkout_replay_lookup_failed", "scope", scope, "error", err)
	}
	if hit && replay != nil {
		order, err := s.orderRepo.GetByID(replay.OrderID)
		if err != nil {
			return nil, err
		}
		if order != nil && orderOwnedBy(order, owner) {
			return &CheckoutResult{Order: order, Replayed: true}, nil
		}
	}
	order, err := s.orderRepo.GetByIdempotencyKey(storeKey)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}
	return &CheckoutResult{Order: order, Replayed: true}, nil
}

const idempotencyKeyMaxLength = 64

// normalizeIdempotencyKey 去除首尾空白，只接受不超过 64 个可打印 ASCII 字符
func normalizeIdempotencyKey(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if len(key) > idempotencyKeyMaxLength {
		return "", ErrIdempotencyKeyInvalid
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x20 || key[i] > 0x7e {
			return "", ErrIdempotencyKeyInvalid
		}
	}
	return key, nil
}

// commit 在单个事务内完成结算，任一步骤失败整体回滚。
// 订单号唯一约束冲突时换号重试整个事务，最多 orderNoAttempts 次。
func (s *CheckoutService) commit(ctx context.Context, owner CartOwner, input CheckoutInput, storeKey string) (*models.Order, []StockLine, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.options.CheckoutTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= orderNoAttempts; attempt++ {
		var order *models.Order
		var lines []StockLine
		order, lines, err = s.commitOnce(txCtx, owner, input, storeKey)
		if err == nil {
			return order, lines, nil
		}
		if !isOrderNoConflict(err) {
			return nil, nil, err
		}
		logger.Warnw("checkout_order_no_conflict", "owner", owner.Scope(), "attempt", attempt)
	}
	return nil, nil, err
}

func (s *CheckoutService) commitOnce(txCtx context.Context, owner CartOwner, input CheckoutInput, storeKey string) (*models.Order, []StockLine, error) {
	now := time.Now()
	orderNo := s.orderNo(now)
	var draft *orderDraft
	err := s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		if err := repository.ApplyLockTimeout(tx, int(s.options.CheckoutTimeout/time.Millisecond)); err != nil {
			return err
		}
		cartRepo := s.cartRepo.WithTx(tx)
		cart, err := lockOwnerCart(cartRepo, owner)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrCartEmpty
		}

		lines := cartStockLines(cart)
		ledger := s.ledger.WithTx(tx)
		locked, err := ledger.Lock(txCtx, lines)
		if err != nil {
			return err
		}
		if err := locked.Validate(lines); err != nil {
			return err
		}

		couponService := s.couponService.WithTx(tx)
		var coupon *models.Coupon
		if strings.TrimSpace(cart.CouponCode) != "" {
			coupon, err = couponService.ResolveLocked(cart.CouponCode, owner.UserID, now)
			if err != nil {
				return err
			}
		}

		draft = buildOrderDraft(orderDraftParams{
			Input:          input,
			Owner:          owner,
			Cart:           cart,
			Locked:         locked,
			Coupon:         coupon,
			Options:        s.options,
			Now:            now,
			OrderNo:        orderNo,
			IdempotencyKey: storeKey,
		})
		if err := s.orderRepo.WithTx(tx).Create(draft.Order, draft.Items); err != nil {
			return err
		}
		if _, err := ledger.ReserveLocked(txCtx, draft.Lines); err != nil {
			return err
		}

		productRepo := s.productRepo.WithTx(tx)
		for productID, quantity := range salesByProduct(draft.Lines) {
			if err := productRepo.IncrementSalesCount(productID, quantity); err != nil {
				return err
			}
		}
		if draft.Coupon != nil {
			if err := couponService.Redeem(draft.Coupon, owner.UserID, draft.Order.ID, draft.Totals.Discount); err != nil {
				return err
			}
		}

		payment := &models.Payment{
			OrderID:  draft.Order.ID,
			Method:   input.PaymentMethod,
			Status:   constants.PaymentStatusPending,
			Amount:   draft.Order.TotalAmount,
			Currency: draft.Order.Currency,
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return err
		}
		delivery := &models.Delivery{
			OrderID: draft.Order.ID,
			Status:  constants.DeliveryStatusPending,
			TrackingHistory: models.DeliveryEvents{
				{Status: constants.DeliveryStatusPending, At: now},
			},
		}
		if err := s.deliveryRepo.WithTx(tx).Create(delivery); err != nil {
			return err
		}

		if err := cartRepo.ClearItems(cart.ID); err != nil {
			return err
		}
		return cartRepo.UpdateCoupon(cart.ID, "", models.Money{})
	})
	if err != nil {
		return nil, nil, err
	}
	return draft.Order, draft.Lines, nil
}

// afterCommit 提交后的附带动作，失败只记录日志
func (s *CheckoutService) afterCommit(ctx context.Context, scope, key string, order *models.Order, reserved []StockLine) {
	if key != "" {
		replay := cache.CheckoutReplay{OrderID: order.ID, OrderNo: order.OrderNo}
		if err := cache.SetCheckoutReplay(ctx, scope, key, replay, s.options.IdempotencyTTL); err != nil {
			logger.Warnw("checkout_replay_cache_failed", "order_no", order.OrderNo, "error", err)
		}
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		payload := queue.OrderTimeoutCancelPayload{OrderID: order.ID}
		if err := s.queueClient.EnqueueOrderTimeoutCancel(payload, s.options.PaymentExpire); err != nil {
			logger.Errorw("order_timeout_cancel_enqueue_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}
	s.notifier.OrderStatusChanged(order)

	owners := make([]models.StockOwner, 0, len(reserved))
	units := 0
	for _, line := range reserved {
		owners = append(owners, line.Owner())
		units += line.Quantity
	}
	s.metrics.AddStockOperation("reserve", units)
	s.ledger.AlertLowStock(owners)
}

func lockOwnerCart(cartRepo repository.CartRepository, owner CartOwner) (*models.Cart, error) {
	var cart *models.Cart
	var err error
	if owner.UserID != 0 {
		cart, err = cartRepo.GetByUser(owner.UserID)
	} else {
		cart, err = cartRepo.GetBySession(strings.TrimSpace(owner.SessionKey))
	}
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	locked, err := cartRepo.LockByID(cart.ID)
	if err != nil {
		return nil, err
	}
	if locked == nil {
		return nil, ErrCartNotFound
	}
	return locked, nil
}

func cartStockLines(cart *models.Cart) []StockLine {
	lines := make([]StockLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, StockLine{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity})
	}
	return lines
}

func salesByProduct(lines []StockLine) map[uint]int {
	result := make(map[uint]int, len(lines))
	for _, line := range lines {
		result[line.ProductID] += line.Quantity
	}
	return result
}

// orderOwnedBy 订单是否属于当前归属
func orderOwnedBy(order *models.Order, owner CartOwner) bool {
	if order == nil {
		return false
	}
	if owner.UserID != 0 {
		return order.UserID == owner.UserID
	}
	sessionKey := strings.TrimSpace(owner.SessionKey)
	return order.UserID == 0 && sessionKey != "" && order.GuestSessionKey == sessionKey
}

func checkoutResultLabel(result *CheckoutResult, err error) string {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "timeout"
		}
		return ErrorKind(err)
	}
	if result != nil && result.Replayed {
		return "replayed"
	}
	return "success"
}
