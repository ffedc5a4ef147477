package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/service"

	"github.com/hibiken/asynq"
)

const expireSweepBatch = 200

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	now func() time.Time
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
		now:       time.Now,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusNotify, c.handleOrderStatusNotify)
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskOrderExpireSweep, c.handleOrderExpireSweep)
	mux.HandleFunc(queue.TaskStockLowAlert, c.handleStockLowAlert)
}

func (c *Consumer) handleOrderStatusNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_notify_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_notify_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_notify_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	receiver := strings.TrimSpace(order.Billing.Email)
	if receiver == "" {
		logger.Debugw("worker_order_status_notify_skip_empty_receiver", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	logger.Infow("order_status_notification_sent",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"status", payload.Status,
		"current_status", order.Status,
		"receiver", receiver,
		"total_amount", order.TotalAmount.String(),
		"currency", order.Currency,
	)
	return nil
}

func (c *Consumer) handleOrderTimeoutCancel(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.LifecycleService == nil {
		logger.Warnw("worker_order_timeout_cancel_skip_lifecycle_nil", "order_id", payload.OrderID)
		return nil
	}
	cancelled, err := c.LifecycleService.CancelExpired(ctx, payload.OrderID, c.now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrInvalidStateTransition):
			logger.Debugw("worker_order_timeout_cancel_skip_invalid_status", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	if cancelled {
		logger.Infow("worker_order_timeout_cancelled", "order_id", payload.OrderID)
	}
	return nil
}

func (c *Consumer) handleOrderExpireSweep(ctx context.Context, _ *asynq.Task) error {
	if c == nil || c.LifecycleService == nil {
		logger.Debugw("worker_order_expire_sweep_skip_nil")
		return nil
	}
	count, err := c.LifecycleService.SweepExpired(ctx, c.now(), expireSweepBatch)
	if count > 0 {
		logger.Infow("worker_order_expire_sweep_done", "cancelled", count)
	}
	if err != nil {
		logger.Warnw("worker_order_expire_sweep_failed", "cancelled", count, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleStockLowAlert(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stock_low_alert_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StockLowAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_stock_low_alert_unmarshal_failed", "error", err)
		return err
	}
	logger.Warnw("stock_low_alert",
		"owner_type", payload.OwnerType,
		"owner_id", payload.OwnerID,
		"product_id", payload.ProductID,
		"available", payload.Available,
		"threshold", payload.Threshold,
	)
	return nil
}
