package service

import (
	"context"
	"sort"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// TransitionOptions 状态流转附加参数
type TransitionOptions struct {
	TrackingNumber string
	Carrier        string
	Note           string
	DeliveryStatus string // 发货时写入的配送状态，默认 in_transit
}

// OrderLifecycleService 订单生命周期：状态流转及其库存、支付、配送副作用
type OrderLifecycleService struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	paymentRepo  repository.PaymentRepository
	deliveryRepo repository.DeliveryRepository
	ledger       *StockLedger
	coupons      *CouponService
	notifier     *NotificationService
	metrics      *metrics.CheckoutMetrics
}

// NewOrderLifecycleService 创建订单生命周期服务
func NewOrderLifecycleService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	deliveryRepo repository.DeliveryRepository,
	ledger *StockLedger,
	coupons *CouponService,
	notifier *NotificationService,
	checkoutMetrics *metrics.CheckoutMetrics,
) *OrderLifecycleService {
	return &OrderLifecycleService{
		db:           db,
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
		deliveryRepo: deliveryRepo,
		ledger:       ledger,
		coupons:      coupons,
		notifier:     notifier,
		metrics:      checkoutMetrics,
	}
}

// lifecycleTx 绑定到单个事务的流转上下文
type lifecycleTx struct {
	ctx         context.Context
	orders      repository.OrderRepository
	payments    repository.PaymentRepository
	deliveries  repository.DeliveryRepository
	ledger      *StockLedger
	coupons     *CouponService
	now         time.Time
	transitions []string
	stockOps    map[string]int
}

func (s *OrderLifecycleService) bind(ctx context.Context, tx *gorm.DB) *lifecycleTx {
	return &lifecycleTx{
		ctx:        ctx,
		orders:     s.orderRepo.WithTx(tx),
		payments:   s.paymentRepo.WithTx(tx),
		deliveries: s.deliveryRepo.WithTx(tx),
		ledger:     s.ledger.WithTx(tx),
		coupons:    s.coupons.WithTx(tx),
		now:        time.Now(),
		stockOps:   map[string]int{},
	}
}

// execute 锁定订单行后在事务内执行 fn，提交后投递通知并记录指标
func (s *OrderLifecycleService) execute(ctx context.Context, orderID uint, fn func(u *lifecycleTx, order *models.Order) error) (*models.Order, error) {
	var unit *lifecycleTx
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unit = s.bind(ctx, tx)
		order, err := unit.orders.LockByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		return fn(unit, order)
	})
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publish(order, unit)
	return order, nil
}

func (s *OrderLifecycleService) publish(order *models.Order, unit *lifecycleTx) {
	if unit == nil || len(unit.transitions) == 0 {
		return
	}
	for _, status := range unit.transitions {
		s.metrics.IncTransition(status)
	}
	for operation, units := range unit.stockOps {
		s.metrics.AddStockOperation(operation, units)
	}
	s.notifier.OrderStatusChanged(order)
}

// Transition 将订单流转到目标状态
func (s *OrderLifecycleService) Transition(ctx context.Context, orderID uint, target string, opts TransitionOptions) (*models.Order, error) {
	return s.execute(ctx, orderID, func(u *lifecycleTx, order *models.Order) error {
		return u.transition(order, target, opts)
	})
}

// CancelByCustomer 买家取消订单
func (s *OrderLifecycleService) CancelByCustomer(ctx context.Context, owner CartOwner, orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil || !orderOwnedBy(order, owner) {
		return nil, ErrOrderNotFound
	}
	return s.Transition(ctx, order.ID, constants.OrderStatusCancelled, TransitionOptions{Note: "customer_cancel"})
}

// CancelExpired 超时未支付订单自动取消，非待支付或未到期时跳过
func (s *OrderLifecycleService) CancelExpired(ctx context.Context, orderID uint, now time.Time) (bool, error) {
	cancelled := false
	_, err := s.execute(ctx, orderID, func(u *lifecycleTx, order *models.Order) error {
		if order.Status != constants.OrderStatusPending || order.PaidAt != nil {
			return nil
		}
		if order.ExpiresAt == nil || order.ExpiresAt.After(now) {
			return nil
		}
		if err := u.transition(order, constants.OrderStatusCancelled, TransitionOptions{Note: "payment_timeout"}); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return cancelled, nil
}

// SweepExpired 批量取消已过期的待支付订单
func (s *OrderLifecycleService) SweepExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	orders, err := s.orderRepo.ListExpiredPending(now, limit)
	if err != nil {
		return 0, err
	}
	count := 0
	var errs error
	for _, order := range orders {
		cancelled, err := s.CancelExpired(ctx, order.ID, now)
		if err != nil {
			logger.Warnw("order_expire_cancel_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
			errs = multierr.Append(errs, err)
			continue
		}
		if cancelled {
			count++
		}
	}
	return count, errs
}

func (u *lifecycleTx) transition(order *models.Order, target string, opts TransitionOptions) error {
	from := order.Status
	if !CanTransitionOrder(from, target) {
		return &TransitionError{Entity: "order", From: from, To: target}
	}
	updates := map[string]interface{}{
		"updated_at": u.now,
	}
	switch target {
	case constants.OrderStatusConfirmed:
		updates["confirmed_at"] = u.now
	case constants.OrderStatusCancelled, constants.OrderStatusFailed:
		state, err := u.reverseStock(order)
		if err != nil {
			return err
		}
		updates["stock_state"] = state
		if target == constants.OrderStatusCancelled {
			updates["cancelled_at"] = u.now
		}
		if err := u.settlePaymentOnAbort(order, target); err != nil {
			return err
		}
		if u.coupons != nil {
			if _, err := u.coupons.ReleaseForOrder(order.ID); err != nil {
				return err
			}
		}
	case constants.OrderStatusRefunded:
		payment, err := u.payments.LockByOrderID(order.ID)
		if err != nil {
			return err
		}
		if payment == nil || (payment.Status != constants.PaymentStatusCompleted && payment.Status != constants.PaymentStatusPartiallyRefunded) {
			return ErrRefundNotAllowed
		}
		state, err := u.reverseStock(order)
		if err != nil {
			return err
		}
		updates["stock_state"] = state
		updates["refunded_at"] = u.now
		if err := u.updatePayment(payment, constants.PaymentStatusRefunded, map[string]interface{}{
			"refunded_amount": payment.Amount,
			"refunded_at":     u.now,
		}); err != nil {
			return err
		}
	case constants.OrderStatusShipped:
		if order.StockState == constants.OrderStockReserved {
			if err := u.commitStock(order); err != nil {
				return err
			}
			updates["stock_state"] = constants.OrderStockCommitted
		}
		updates["shipped_at"] = u.now
		if opts.TrackingNumber != "" {
			updates["tracking_number"] = opts.TrackingNumber
		}
		if opts.Carrier != "" {
			updates["carrier_name"] = opts.Carrier
		}
		deliveryStatus := constants.DeliveryStatusInTransit
		if opts.DeliveryStatus != "" {
			deliveryStatus = opts.DeliveryStatus
		}
		if err := u.markDelivery(order.ID, deliveryStatus, opts); err != nil {
			return err
		}
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = u.now
		if err := u.markDelivery(order.ID, constants.DeliveryStatusDelivered, opts); err != nil {
			return err
		}
	}

	affected, err := u.orders.UpdateStatus(order.ID, from, target, updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &TransitionError{Entity: "order", From: from, To: target}
	}
	order.Status = target
	u.transitions = append(u.transitions, target)
	return nil
}

// capture 支付成功：预占转实扣，待支付订单进入 processing；货到付款订单只记录收款
func (u *lifecycleTx) capture(order *models.Order, payment *models.Payment, transactionID string) error {
	advance := order.Status == constants.OrderStatusPending
	switch order.Status {
	case constants.OrderStatusPending, constants.OrderStatusProcessing,
		constants.OrderStatusConfirmed, constants.OrderStatusShipped, constants.OrderStatusDelivered:
	default:
		return &TransitionError{Entity: "order", From: order.Status, To: constants.OrderStatusProcessing}
	}
	if err := u.updatePayment(payment, constants.PaymentStatusCompleted, map[string]interface{}{
		"transaction_id": transactionID,
		"paid_at":        u.now,
		"failure_reason": "",
	}); err != nil {
		return err
	}
	updates := map[string]interface{}{
		"paid_at":    u.now,
		"updated_at": u.now,
	}
	if order.StockState == constants.OrderStockReserved {
		if err := u.commitStock(order); err != nil {
			return err
		}
		updates["stock_state"] = constants.OrderStockCommitted
	}
	if !advance {
		return u.orders.Update(order.ID, updates)
	}
	from := order.Status
	affected, err := u.orders.UpdateStatus(order.ID, from, constants.OrderStatusProcessing, updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &TransitionError{Entity: "order", From: from, To: constants.OrderStatusProcessing}
	}
	order.Status = constants.OrderStatusProcessing
	u.transitions = append(u.transitions, constants.OrderStatusProcessing)
	return nil
}

// settlePaymentOnAbort 取消或失败时同步支付状态：已支付退款，未支付关闭
func (u *lifecycleTx) settlePaymentOnAbort(order *models.Order, target string) error {
	payment, err := u.payments.LockByOrderID(order.ID)
	if err != nil || payment == nil {
		return err
	}
	switch payment.Status {
	case constants.PaymentStatusCompleted:
		return u.updatePayment(payment, constants.PaymentStatusRefunded, map[string]interface{}{
			"refunded_amount": payment.Amount,
			"refunded_at":     u.now,
		})
	case constants.PaymentStatusPending, constants.PaymentStatusProcessing:
		next := constants.PaymentStatusCancelled
		if target == constants.OrderStatusFailed {
			next = constants.PaymentStatusFailed
		}
		return u.updatePayment(payment, next, nil)
	}
	return nil
}

func (u *lifecycleTx) updatePayment(payment *models.Payment, target string, updates map[string]interface{}) error {
	if !CanTransitionPayment(payment.Status, target) {
		return &TransitionError{Entity: "payment", From: payment.Status, To: target}
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = u.now
	affected, err := u.payments.UpdateStatus(payment.ID, payment.Status, target, updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &TransitionError{Entity: "payment", From: payment.Status, To: target}
	}
	payment.Status = target
	return nil
}

// reverseStock 预占释放或已实扣回补，返回新的库存状态
func (u *lifecycleTx) reverseStock(order *models.Order) (string, error) {
	var apply func(ctx context.Context, owner models.StockOwner, quantity int) error
	operation := ""
	switch order.StockState {
	case constants.OrderStockReserved:
		apply, operation = u.ledger.Release, "release"
	case constants.OrderStockCommitted:
		apply, operation = u.ledger.Restock, "restock"
	default:
		return order.StockState, nil
	}
	var errs error
	for _, line := range orderStockLines(order.Items) {
		if err := apply(u.ctx, line.Owner(), line.Quantity); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		u.stockOps[operation] += line.Quantity
	}
	if errs != nil {
		return "", errs
	}
	return constants.OrderStockReleased, nil
}

func (u *lifecycleTx) commitStock(order *models.Order) error {
	var errs error
	for _, line := range orderStockLines(order.Items) {
		if err := u.ledger.Commit(u.ctx, line.Owner(), line.Quantity); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		u.stockOps["commit"] += line.Quantity
	}
	return errs
}

// markDelivery 订单发货或签收时同步配送记录
func (u *lifecycleTx) markDelivery(orderID uint, status string, opts TransitionOptions) error {
	delivery, err := u.deliveries.LockByOrderID(orderID)
	if err != nil || delivery == nil {
		return err
	}
	switch delivery.Status {
	case constants.DeliveryStatusDelivered, constants.DeliveryStatusFailed, constants.DeliveryStatusReturned:
		return nil
	}
	if delivery.Status == status {
		return nil
	}
	delivery.Status = status
	if opts.TrackingNumber != "" {
		delivery.TrackingNumber = opts.TrackingNumber
	}
	if opts.Carrier != "" {
		delivery.Carrier = opts.Carrier
	}
	if status == constants.DeliveryStatusDelivered {
		deliveredAt := u.now
		delivery.DeliveredAt = &deliveredAt
	}
	delivery.TrackingHistory = append(delivery.TrackingHistory, models.DeliveryEvent{
		Status: status,
		Note:   opts.Note,
		At:     u.now,
	})
	return u.deliveries.Save(delivery)
}

// orderStockLines 按库存归属合并订单项，按商品 ID 升序返回以保持加锁顺序
func orderStockLines(items []models.OrderItem) []StockLine {
	index := make(map[models.StockOwner]int, len(items))
	lines := make([]StockLine, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		owner := item.StockOwner()
		if idx, ok := index[owner]; ok {
			lines[idx].Quantity += item.Quantity
			continue
		}
		index[owner] = len(lines)
		lines = append(lines, StockLine{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].VariantID < lines[j].VariantID
	})
	return lines
}
