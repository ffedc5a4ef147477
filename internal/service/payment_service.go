package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/payment"
	"github.com/storefront-next/internal/repository"
)

// PaymentService 支付处理：调用网关并驱动订单状态
type PaymentService struct {
	orderRepo repository.OrderRepository
	lifecycle *OrderLifecycleService
	gateway   payment.Gateway
}

// NewPaymentService 创建支付服务
func NewPaymentService(orderRepo repository.OrderRepository, lifecycle *OrderLifecycleService, gateway payment.Gateway) *PaymentService {
	if gateway == nil {
		gateway = payment.NewManualGateway()
	}
	return &PaymentService{
		orderRepo: orderRepo,
		lifecycle: lifecycle,
		gateway:   gateway,
	}
}

// Process 买家发起支付，网关调用在事务外完成
func (s *PaymentService) Process(ctx context.Context, owner CartOwner, orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(strings.TrimSpace(orderNo))
	if err != nil {
		return nil, err
	}
	if order == nil || !orderOwnedBy(order, owner) {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return nil, &TransitionError{Entity: "order", From: order.Status, To: constants.OrderStatusProcessing}
	}
	if order.Payment == nil {
		return nil, ErrPaymentNotFound
	}
	if order.Payment.Status != constants.PaymentStatusPending {
		return nil, &TransitionError{Entity: "payment", From: order.Payment.Status, To: constants.PaymentStatusCompleted}
	}

	result, err := s.gateway.Charge(ctx, payment.ChargeInput{
		OrderNo:  order.OrderNo,
		Method:   order.Payment.Method,
		Amount:   order.TotalAmount.Decimal,
		Currency: order.Currency,
	})
	if err != nil {
		logger.Warnw("payment_gateway_charge_failed",
			"order_no", order.OrderNo,
			"method", order.Payment.Method,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}

	switch result.Status {
	case payment.StatusCompleted:
		return s.Capture(ctx, order.ID, result.TransactionID)
	case payment.StatusPending:
		return s.awaitCollection(ctx, order.ID, result.TransactionID)
	default:
		return s.decline(ctx, order.ID, result.FailureReason)
	}
}

// Capture 确认收款：支付完成，预占转实扣，订单进入 processing
func (s *PaymentService) Capture(ctx context.Context, orderID uint, transactionID string) (*models.Order, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		transactionID = payment.NewTransactionID()
	}
	return s.lifecycle.execute(ctx, orderID, func(u *lifecycleTx, order *models.Order) error {
		record, err := u.payments.LockByOrderID(order.ID)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrPaymentNotFound
		}
		if record.Status == constants.PaymentStatusCompleted && order.PaidAt != nil {
			return nil
		}
		return u.capture(order, record, transactionID)
	})
}

// awaitCollection 货到付款：支付进入 processing，订单确认并不再超时取消
func (s *PaymentService) awaitCollection(ctx context.Context, orderID uint, transactionID string) (*models.Order, error) {
	return s.lifecycle.execute(ctx, orderID, func(u *lifecycleTx, order *models.Order) error {
		record, err := u.payments.LockByOrderID(order.ID)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrPaymentNotFound
		}
		if err := u.updatePayment(record, constants.PaymentStatusProcessing, map[string]interface{}{
			"transaction_id": transactionID,
		}); err != nil {
			return err
		}
		if err := u.transition(order, constants.OrderStatusConfirmed, TransitionOptions{}); err != nil {
			return err
		}
		return u.orders.Update(order.ID, map[string]interface{}{"expires_at": nil})
	})
}

// decline 网关拒付：支付失败，订单失败并释放预占
func (s *PaymentService) decline(ctx context.Context, orderID uint, reason string) (*models.Order, error) {
	order, err := s.lifecycle.execute(ctx, orderID, func(u *lifecycleTx, order *models.Order) error {
		record, err := u.payments.LockByOrderID(order.ID)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrPaymentNotFound
		}
		if err := u.updatePayment(record, constants.PaymentStatusFailed, map[string]interface{}{
			"failure_reason": truncate(strings.TrimSpace(reason), 255),
		}); err != nil {
			return err
		}
		return u.transition(order, constants.OrderStatusFailed, TransitionOptions{Note: "payment_declined"})
	})
	if err != nil {
		return nil, err
	}
	return order, ErrPaymentDeclined
}

// Refund 全额退款：须已完成支付
func (s *PaymentService) Refund(ctx context.Context, orderID uint, reason string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !CanTransitionOrder(order.Status, constants.OrderStatusRefunded) {
		return nil, &TransitionError{Entity: "order", From: order.Status, To: constants.OrderStatusRefunded}
	}
	if order.Payment == nil || order.Payment.Status != constants.PaymentStatusCompleted {
		return nil, ErrRefundNotAllowed
	}
	if _, err := s.gateway.Refund(ctx, payment.RefundInput{
		OrderNo:       order.OrderNo,
		TransactionID: order.Payment.TransactionID,
		Amount:        order.Payment.Amount.Decimal,
		Currency:      order.Payment.Currency,
		Reason:        reason,
	}); err != nil {
		logger.Warnw("payment_gateway_refund_failed",
			"order_no", order.OrderNo,
			"error", err,
		)
		if errors.Is(err, payment.ErrRequestInvalid) {
			return nil, ErrRefundNotAllowed
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}
	return s.lifecycle.Transition(ctx, order.ID, constants.OrderStatusRefunded, TransitionOptions{Note: reason})
}
