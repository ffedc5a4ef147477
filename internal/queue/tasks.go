package queue

import (
	"encoding/json"

	"github.com/storefront-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusNotify 订单状态通知任务
	TaskOrderStatusNotify = constants.TaskOrderStatusNotify
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskStockLowAlert 低库存告警任务
	TaskStockLowAlert = constants.TaskStockLowAlert
	// TaskOrderExpireSweep 超时订单兜底扫描任务
	TaskOrderExpireSweep = constants.TaskOrderExpireSweep
)

// OrderStatusNotifyPayload 订单状态通知任务载荷
type OrderStatusNotifyPayload struct {
	OrderID uint   `json:"order_id"`
	OrderNo string `json:"order_no"`
	Status  string `json:"status"`
}

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// StockLowAlertPayload 低库存告警任务载荷
type StockLowAlertPayload struct {
	OwnerType string `json:"owner_type"`
	OwnerID   uint   `json:"owner_id"`
	ProductID uint   `json:"product_id"`
	Available int    `json:"available"`
	Threshold int    `json:"threshold"`
}

func newJSONTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.MaxRetry(maxRetry(taskType))), nil
}

// maxRetry 通知类任务允许多次重试，取消与告警失败后由周期扫描兜底
func maxRetry(taskType string) int {
	switch taskType {
	case TaskOrderStatusNotify:
		return 5
	case TaskOrderExpireSweep:
		return 0
	default:
		return 3
	}
}

// NewOrderStatusNotifyTask 创建订单状态通知任务
func NewOrderStatusNotifyTask(payload OrderStatusNotifyPayload) (*asynq.Task, error) {
	return newJSONTask(TaskOrderStatusNotify, payload)
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	return newJSONTask(TaskOrderTimeoutCancel, payload)
}

// NewStockLowAlertTask 创建低库存告警任务
func NewStockLowAlertTask(payload StockLowAlertPayload) (*asynq.Task, error) {
	return newJSONTask(TaskStockLowAlert, payload)
}

// NewOrderExpireSweepTask 创建超时订单扫描任务
func NewOrderExpireSweepTask() *asynq.Task {
	return asynq.NewTask(TaskOrderExpireSweep, nil, asynq.MaxRetry(maxRetry(TaskOrderExpireSweep)))
}
