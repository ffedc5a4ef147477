package service

import (
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
)

// NotificationService 订单通知（异步任务投递），nil 接收者安全
type NotificationService struct {
	queueClient *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(queueClient *queue.Client) *NotificationService {
	return &NotificationService{queueClient: queueClient}
}

// OrderStatusChanged 投递订单状态通知，失败只记录日志
func (s *NotificationService) OrderStatusChanged(order *models.Order) {
	if s == nil || order == nil || s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	payload := queue.OrderStatusNotifyPayload{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		Status:  order.Status,
	}
	if err := s.queueClient.EnqueueOrderStatusNotify(payload); err != nil {
		logger.Warnw("order_status_notify_enqueue_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"status", order.Status,
			"error", err,
		)
	}
}
