package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 普通任务队列
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 告警类任务队列
	CriticalQueue = constants.QueueCritical

	orderExpireSweepSpec = "@every 1m"
	stockAlertDedupe     = time.Hour
	defaultConcurrency   = 10
)

// Client asynq 客户端，队列未启用时所有投递都是空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(redisClientOpt(cfg))}, nil
}

// Enabled 是否真正投递任务
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// submit 编码并投递任务；相同 TaskID 已在队列中时视为成功
func (c *Client) submit(taskType string, payload interface{}, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := newJSONTask(taskType, payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", taskType, err)
	}
	_, err = c.client.Enqueue(task, append([]asynq.Option{asynq.Queue(DefaultQueue)}, opts...)...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// EnqueueOrderStatusNotify 订单状态变更通知
func (c *Client) EnqueueOrderStatusNotify(payload OrderStatusNotifyPayload, opts ...asynq.Option) error {
	return c.submit(TaskOrderStatusNotify, payload, opts...)
}

// EnqueueOrderTimeoutCancel 到期后取消未支付订单，每个订单只排一次
func (c *Client) EnqueueOrderTimeoutCancel(payload OrderTimeoutCancelPayload, delay time.Duration) error {
	return c.submit(TaskOrderTimeoutCancel, payload,
		asynq.ProcessIn(max(delay, 0)),
		asynq.TaskID(fmt.Sprintf("order-timeout-%d", payload.OrderID)),
	)
}

// EnqueueStockLowAlert 低库存告警，同一库存一小时内只告警一次
func (c *Client) EnqueueStockLowAlert(payload StockLowAlertPayload) error {
	return c.submit(TaskStockLowAlert, payload,
		asynq.Queue(CriticalQueue),
		asynq.Unique(stockAlertDedupe),
	)
}

// BuildServerConfig 消费端连接与并发配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{DefaultQueue: 1},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return redisClientOpt(cfg), serverCfg
}

// NewScheduler 周期扫描超时订单，兜底延迟任务丢失的情况
func NewScheduler(cfg *config.QueueConfig) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisClientOpt(cfg), &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register(orderExpireSweepSpec, NewOrderExpireSweepTask(), asynq.Queue(DefaultQueue)); err != nil {
		return nil, fmt.Errorf("register order expire sweep: %w", err)
	}
	return scheduler, nil
}

func redisClientOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
