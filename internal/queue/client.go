package queue

import (
	"fmt"
	"strings"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 高优队列（轨迹事件）
	CriticalQueue = constants.QueueCritical
	// LowQueue 低优队列（通知推送）
	LowQueue = constants.QueueLow

	defaultEventMaxRetry = 5
)

// Client 队列客户端封装
type Client struct {
	client        *asynq.Client
	enabled       bool
	eventMaxRetry int
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig, eventMaxRetry int) (*Client, error) {
	if eventMaxRetry <= 0 {
		eventMaxRetry = defaultEventMaxRetry
	}
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, eventMaxRetry: eventMaxRetry}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:        client,
		enabled:       true,
		eventMaxRetry: eventMaxRetry,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueTrackingEvent 推送轨迹事件任务（高优队列，失败重试后进 archived）
func (c *Client) EnqueueTrackingEvent(payload TrackingEventPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewTrackingEventTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.MaxRetry(c.eventMaxRetry),
	}, opts...)
	_, err = c.client.Enqueue(task, options...)
	return err
}

// EnqueueNotification 推送通知任务（低优队列）
func (c *Client) EnqueueNotification(payload NotificationPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewNotificationDispatchTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(LowQueue)}, opts...)
	_, err = c.client.Enqueue(task, options...)
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{
		CriticalQueue: 6,
		DefaultQueue:  3,
		LowQueue:      1,
	}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
