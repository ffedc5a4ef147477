package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
)

func TestNewStockLowAlertTaskPayload(t *testing.T) {
	task, err := NewStockLowAlertTask(StockLowAlertPayload{OwnerType: "product", OwnerID: 3, ProductID: 3, Available: 1, Threshold: 5})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskStockLowAlert {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload StockLowAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.OwnerID != 3 || payload.Available != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderTimeoutCancel(OrderTimeoutCancelPayload{OrderID: 1}, time.Minute); err != nil {
		t.Fatalf("disabled client should not fail: %v", err)
	}
	if err := client.EnqueueStockLowAlert(StockLowAlertPayload{OwnerID: 1}); err != nil {
		t.Fatalf("disabled client should not fail: %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should be disabled")
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected addr: %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestRedisClientOptFromConfig(t *testing.T) {
	opt := redisClientOpt(&config.QueueConfig{Host: " redis ", Port: 6380, Password: "pw", DB: 2})
	if opt.Addr != "redis:6380" || opt.Password != "pw" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if opt := redisClientOpt(&config.QueueConfig{}); opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("empty host should use default addr, got %s", opt.Addr)
	}
}

func TestMaxRetryByTaskType(t *testing.T) {
	if maxRetry(TaskOrderStatusNotify) <= maxRetry(TaskOrderTimeoutCancel) {
		t.Fatalf("notifications should retry more than cancellations")
	}
	if maxRetry(TaskOrderExpireSweep) != 0 {
		t.Fatalf("sweep runs every minute and should not retry")
	}
}
